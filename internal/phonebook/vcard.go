package phonebook

import (
	"fmt"
	"io"

	"github.com/emersion/go-vcard"
)

// WriteVCards encodes contacts as a vCard 4.0 stream.
func WriteVCards(w io.Writer, contacts []*Contact) error {
	enc := vcard.NewEncoder(w)
	for _, c := range contacts {
		card := make(vcard.Card)
		card.SetValue(vcard.FieldFormattedName, c.Name)
		for _, n := range c.Numbers {
			card.AddValue(vcard.FieldTelephone, n)
		}
		if c.VIP {
			card.SetValue(vcard.FieldCategories, "VIP")
		}
		vcard.ToV4(card)

		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("failed to encode vCard for %s: %w", c.Name, err)
		}
	}
	return nil
}
