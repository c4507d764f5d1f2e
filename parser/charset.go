package parser

import (
	"fmt"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/adamwoolhether/volleyer/request"
)

// DefaultCharset applies when a response declares none.
const DefaultCharset = "utf-8"

// MediaType returns the lowercased type/subtype of contentType with all
// parameters stripped. It returns "" for an empty header.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}

	return strings.ToLower(strings.TrimSpace(mt))
}

// Charset returns the charset parameter of contentType, or [DefaultCharset]
// when none is declared. It returns "" for a header too malformed to parse
// that still names a charset.
func Charset(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		if strings.Contains(strings.ToLower(contentType), "charset") {
			return ""
		}
		return DefaultCharset
	}
	if params["charset"] == "" {
		return DefaultCharset
	}

	return strings.ToLower(params["charset"])
}

// DecodeBody returns the response body transcoded to UTF-8 using the
// charset declared by its Content-Type.
func DecodeBody(resp *request.NetworkResponse) ([]byte, error) {
	if resp == nil {
		return nil, &request.Error{Err: request.ErrNoResponse}
	}

	ct := resp.ContentType()
	cs := Charset(ct)
	if cs == "" {
		return nil, &ParseError{ContentType: ct, Err: fmt.Errorf("%w: malformed content type", ErrUnsupportedCharset)}
	}

	enc, err := htmlindex.Get(cs)
	if err != nil {
		return nil, &ParseError{ContentType: ct, Err: fmt.Errorf("%w: %q", ErrUnsupportedCharset, cs)}
	}

	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return resp.Body, nil
	}

	out, err := enc.NewDecoder().Bytes(resp.Body)
	if err != nil {
		return nil, malformed(resp, fmt.Errorf("decoding %s: %w", cs, err))
	}

	return out, nil
}
