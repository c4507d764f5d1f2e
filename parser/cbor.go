//go:build !volleyer_nocbor

package parser

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/request"
)

func init() {
	capability.Provide(capability.CBOR)
	register(capability.CBOR, func() TypedParser { return CBORParser{} })
}

// CBORParser decodes binary CBOR bodies. Charset parameters are ignored.
type CBORParser struct{}

func (CBORParser) ContentTypes() []string { return []string{"application/cbor"} }

func (CBORParser) Parse(resp *request.NetworkResponse, v any) error {
	if err := checkTarget(v); err != nil {
		return err
	}

	if err := cbor.Unmarshal(resp.Body, v); err != nil {
		return malformed(resp, err)
	}

	return nil
}
