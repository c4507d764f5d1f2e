package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/tidwall/gjson"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/request"
)

func init() {
	register(capability.JSON, func() TypedParser { return JSONParser{} })
}

var jsonTypes = []string{"application/json", "text/json"}

// JSONParser decodes with encoding/json. A *gjson.Result target receives
// the validated document for path queries instead.
type JSONParser struct {
	// UseNumber decodes numbers into interface values as json.Number.
	UseNumber bool
}

func (JSONParser) ContentTypes() []string { return jsonTypes }

func (p JSONParser) Parse(resp *request.NetworkResponse, v any) error {
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

	dec := json.NewDecoder(bytes.NewReader(body))
	if p.UseNumber {
		dec.UseNumber()
	}

	if err := dec.Decode(v); err != nil {
		var target *json.InvalidUnmarshalError
		if errors.As(err, &target) {
			return &request.Error{Response: resp, Err: err}
		}
		return malformed(resp, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return malformed(resp, errors.New("trailing data after JSON value"))
	}

	return nil
}

// parseDocument handles the *gjson.Result target shared by both JSON parsers.
func parseDocument(resp *request.NetworkResponse, body []byte, v any) (bool, error) {
	doc, ok := v.(*gjson.Result)
	if !ok {
		return false, nil
	}

	if !gjson.ValidBytes(body) {
		return true, malformed(resp, errors.New("invalid JSON document"))
	}
	*doc = gjson.ParseBytes(body)

	return true, nil
}
