package phonebook

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"callmonitor-bridge/internal/common/errors"
)

// xmlNode is a namespace-agnostic view of one element. Firmware versions
// disagree on nesting and namespaces, so elements are matched by local name
// at any depth instead of through a fixed schema.
type xmlNode struct {
	XMLName xml.Name
	Text    string    `xml:",chardata"`
	Nodes   []xmlNode `xml:",any"`
}

// walk visits n and all of its descendants in document order.
func (n *xmlNode) walk(fn func(*xmlNode)) {
	fn(n)
	for i := range n.Nodes {
		n.Nodes[i].walk(fn)
	}
}

func (n *xmlNode) text() string {
	return strings.TrimSpace(n.Text)
}

func decodeTree(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var root xmlNode
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// charsetReader lets older firmware that declares ISO-8859-1 through.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Parse builds an Index from a phonebook document. Contacts without a
// realName are skipped; numbers are normalized and empty ones dropped.
func Parse(data []byte) (*Index, error) {
	root, err := decodeTree(data)
	if err != nil {
		return nil, errors.ParseError("malformed phonebook XML", err)
	}

	idx := newIndex()
	root.walk(func(n *xmlNode) {
		if n.XMLName.Local != "contact" {
			return
		}
		if c := contactFromNode(n); c != nil {
			idx.add(c)
		}
	})
	return idx, nil
}

func contactFromNode(n *xmlNode) *Contact {
	var (
		name    string
		vip     bool
		numbers []string
	)

	n.walk(func(el *xmlNode) {
		switch el.XMLName.Local {
		case "realName":
			if name == "" {
				name = el.text()
			}
		case "category":
			if el.text() == "1" {
				vip = true
			}
		case "number":
			if nr := Normalize(el.text()); nr != "" {
				numbers = append(numbers, nr)
			}
		}
	})

	if name == "" {
		return nil
	}
	return &Contact{Name: name, Numbers: numbers, VIP: vip}
}
