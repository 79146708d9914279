package phonebook

import (
	"bytes"
	"testing"

	"github.com/emersion/go-vcard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteVCards(t *testing.T) {
	contacts := []*Contact{
		{Name: "Alice", Numbers: []string{"+49301234567", "01715550000"}, VIP: true},
		{Name: "Bob", Numbers: []string{"999"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVCards(&buf, contacts))

	dec := vcard.NewDecoder(&buf)

	card, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, "Alice", card.Value(vcard.FieldFormattedName))
	assert.Equal(t, []string{"+49301234567", "01715550000"}, card.Values(vcard.FieldTelephone))
	assert.Equal(t, "VIP", card.Value(vcard.FieldCategories))
	assert.Equal(t, "4.0", card.Value(vcard.FieldVersion))

	card, err = dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, "Bob", card.Value(vcard.FieldFormattedName))
	assert.Empty(t, card.Value(vcard.FieldCategories))
}
