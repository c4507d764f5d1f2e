package parser

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/volleyer/request"
)

var (
	// ErrMalformed marks a body that could not be decoded: bad syntax, a
	// value that does not fit the target, or bytes invalid in their charset.
	ErrMalformed = errors.New("malformed response body")
	// ErrUnsupportedCharset marks a declared charset that is not recognized.
	ErrUnsupportedCharset = errors.New("unsupported charset")
	// ErrUnresolved is wrapped by [UnresolvedError].
	ErrUnresolved = errors.New("no parser for content type")
	// ErrUnsupportedTarget marks a target the parser cannot decode into.
	ErrUnsupportedTarget = errors.New("unsupported target type")
)

// ParseError reports a response body that could not be turned into a
// value. It wraps either [ErrMalformed] or [ErrUnsupportedCharset].
type ParseError struct {
	ContentType string
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q: %v", e.ContentType, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnresolvedError is returned when no parser matches a content type and no
// fallback is configured.
type UnresolvedError struct {
	ContentType string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnresolved, e.ContentType)
}

func (e *UnresolvedError) Unwrap() error {
	return ErrUnresolved
}

func malformed(resp *request.NetworkResponse, err error) error {
	return &ParseError{
		ContentType: resp.ContentType(),
		Err:         fmt.Errorf("%w: %w", ErrMalformed, err),
	}
}

// IsParseError reports whether err came from a malformed body or charset.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
