package tr064

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"callmonitor-bridge/internal/common/errors"
)

const (
	envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	encodingNS = "http://schemas.xmlsoap.org/soap/encoding/"
)

// Arg is one named input argument of a TR-064 action.
type Arg struct {
	Name  string
	Value string
}

// buildEnvelope renders the SOAP request body for action of service.
func buildEnvelope(service, action string, args []Arg) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	fmt.Fprintf(&buf, `<s:Envelope xmlns:s="%s" s:encodingStyle="%s"><s:Body>`, envelopeNS, encodingNS)
	fmt.Fprintf(&buf, `<u:%s xmlns:u="%s">`, action, service)
	for _, a := range args {
		fmt.Fprintf(&buf, "<%s>", a.Name)
		if err := xml.EscapeText(&buf, []byte(a.Value)); err != nil {
			return nil, errors.InternalError("failed to escape SOAP argument", err)
		}
		fmt.Fprintf(&buf, "</%s>", a.Name)
	}
	fmt.Fprintf(&buf, `</u:%s></s:Body></s:Envelope>`, action)
	return buf.Bytes(), nil
}

// responseField returns the text of the first element named field, matched
// by local name at any depth so that namespace prefixes do not matter.
func responseField(body []byte, field string) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.ParseError("malformed SOAP response", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != field {
			continue
		}

		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return "", errors.ParseError("malformed SOAP response", err)
		}
		return strings.TrimSpace(text), nil
	}

	return "", errors.ProtocolError("field missing from SOAP response").WithContext("field", field)
}
