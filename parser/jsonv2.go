//go:build !volleyer_nojsonv2

package parser

import (
	jsonv2 "github.com/go-json-experiment/json"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/request"
)

func init() {
	capability.Provide(capability.JSONv2)
	register(capability.JSONv2, func() TypedParser { return JSONv2Parser{} })
}

// JSONv2Parser decodes with github.com/go-json-experiment/json. It is
// stricter than [JSONParser]: duplicate object names and invalid UTF-8 are
// rejected.
type JSONv2Parser struct {
	// Options are passed through to the decoder.
	Options []jsonv2.Options
}

func (JSONv2Parser) ContentTypes() []string { return jsonTypes }

func (p JSONv2Parser) Parse(resp *request.NetworkResponse, v any) error {
	if err := checkTarget(v); err != nil {
		return err
	}

	body, err := DecodeBody(resp)
	if err != nil {
		return err
	}

	if ok, err := parseDocument(resp, body, v); ok {
		return err
	}

	if err := jsonv2.Unmarshal(body, v, p.Options...); err != nil {
		return malformed(resp, err)
	}

	return nil
}
