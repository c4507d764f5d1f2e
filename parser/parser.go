// Package parser turns raw response bodies into typed values.
//
// A [Registry] maps normalized content types to parsers and selects one per
// response from its declared Content-Type. Optional codecs are installed
// into a registry by [Install] only when their capability is present.
//
// Every parser reports failures as one of two kinds: a [ParseError] for
// malformed input (bad syntax, bad or unsupported charset), or a
// [request.Error] for anything unexpected, such as an unusable target.
package parser

import (
	"fmt"
	"reflect"

	"github.com/adamwoolhether/volleyer/request"
)

// Parser decodes resp into v, which must be a non-nil pointer.
type Parser interface {
	Parse(resp *request.NetworkResponse, v any) error
}

// TypedParser is a Parser that knows which content types it serves.
type TypedParser interface {
	Parser
	ContentTypes() []string
}

// Func adapts a function to [Parser].
type Func func(resp *request.NetworkResponse, v any) error

func (f Func) Parse(resp *request.NetworkResponse, v any) error { return f(resp, v) }

// Parse decodes resp into a fresh T. On failure it returns the zero T, so a
// partially decoded value never escapes.
func Parse[T any](p Parser, resp *request.NetworkResponse) (T, error) {
	var v T
	if err := p.Parse(resp, &v); err != nil {
		var zero T
		return zero, err
	}

	return v, nil
}

func checkTarget(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &request.Error{Err: fmt.Errorf("%w: %T", ErrUnsupportedTarget, v)}
	}

	return nil
}

// StringParser hands back the charset-decoded body. Targets must be
// *string or *[]byte.
type StringParser struct{}

func (StringParser) ContentTypes() []string {
	return []string{"text/plain", "text/html", "text/*"}
}

func (StringParser) Parse(resp *request.NetworkResponse, v any) error {
	body, err := DecodeBody(resp)
	if err != nil {
		return err
	}

	switch t := v.(type) {
	case *string:
		*t = string(body)
	case *[]byte:
		*t = append([]byte(nil), body...)
	default:
		return &request.Error{Response: resp, Err: fmt.Errorf("%w: %T", ErrUnsupportedTarget, v)}
	}

	return nil
}

// DiscardParser ignores the body entirely.
type DiscardParser struct{}

func (DiscardParser) Parse(*request.NetworkResponse, any) error { return nil }
