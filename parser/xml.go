package parser

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/beevik/etree"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/request"
)

func init() {
	register(capability.XML, func() TypedParser { return XMLParser{} })
}

// XMLParser decodes with encoding/xml. An *etree.Document target receives
// the parsed element tree instead.
type XMLParser struct{}

func (XMLParser) ContentTypes() []string {
	return []string{"application/xml", "text/xml"}
}

func (XMLParser) Parse(resp *request.NetworkResponse, v any) error {
	if err := checkTarget(v); err != nil {
		return err
	}

	body, err := DecodeBody(resp)
	if err != nil {
		return err
	}

	if doc, ok := v.(*etree.Document); ok {
		doc.ReadSettings.CharsetReader = passthrough
		if err := doc.ReadFromBytes(body); err != nil {
			return malformed(resp, err)
		}
		return nil
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = passthrough
	if err := dec.Decode(v); err != nil {
		return malformed(resp, err)
	}

	return nil
}

// passthrough ignores the XML declaration's encoding; DecodeBody has
// already produced UTF-8.
func passthrough(_ string, r io.Reader) (io.Reader, error) {
	return r, nil
}
