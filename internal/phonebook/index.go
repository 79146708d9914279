package phonebook

// Index maps normalized numbers to contacts. An Index is built once and then
// only read; a refresh builds a new one instead of editing the old.
type Index struct {
	byNumber map[string]*Contact
	contacts []*Contact
}

func newIndex() *Index {
	return &Index{byNumber: make(map[string]*Contact)}
}

// add registers c under each of its numbers. A number already present is
// taken over by the later contact.
func (i *Index) add(c *Contact) {
	i.contacts = append(i.contacts, c)
	for _, n := range c.Numbers {
		i.byNumber[n] = c
	}
}

// Get returns the contact registered under an already normalized number.
func (i *Index) Get(number string) (*Contact, bool) {
	c, ok := i.byNumber[number]
	return c, ok
}

// Len is the number of unique normalized numbers.
func (i *Index) Len() int {
	return len(i.byNumber)
}

// Contacts returns the named contacts in document order.
func (i *Index) Contacts() []*Contact {
	out := make([]*Contact, len(i.contacts))
	copy(out, i.contacts)
	return out
}
