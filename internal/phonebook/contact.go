// Package phonebook turns a gateway phonebook document into an in-memory
// number index and answers caller-name lookups against it.
package phonebook

import "strings"

// Contact is one named phonebook entry. Contacts are never modified after
// parsing; every number of a contact maps to the same *Contact.
type Contact struct {
	Name    string   `json:"name"`
	Numbers []string `json:"numbers"`
	VIP     bool     `json:"vip"`
}

// Normalize reduces a phone number to its ASCII digits, keeping a '+' only
// when it comes before the first digit.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
