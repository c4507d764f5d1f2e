package request

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// maxErrBodySize caps how much of an unexpected response body is copied
// into an [UnexpectedStatusError].
const maxErrBodySize = 4 << 10 // 4KB

// NetworkResponse is the raw outcome of one transfer.
type NetworkResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

// ContentType returns the declared Content-Type header, if any. A nil
// response has none.
func (r *NetworkResponse) ContentType() string {
	if r == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// IsSuccess reports a 2xx status. A nil response is not a success.
func (r *NetworkResponse) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

var (
	// ErrUnexpectedStatusCode is the sentinel wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrNoResponse is returned when a response is required but nil.
	ErrNoResponse = errors.New("no response")
)

// UnexpectedStatusError is returned when a response is not 2xx.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Response   *NetworkResponse
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// CheckStatus returns nil for 2xx responses and an [UnexpectedStatusError]
// otherwise. A nil response yields an [Error] wrapping [ErrNoResponse].
func CheckStatus(resp *NetworkResponse) error {
	if resp == nil {
		return &Error{Err: ErrNoResponse}
	}
	if resp.IsSuccess() {
		return nil
	}

	body := resp.Body
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	err := ErrUnexpectedStatusCode
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Response:   resp,
		Err:        err,
	}
}

// Error is the generic request-level failure: the transfer broke, or
// something unexpected happened while handling its result.
type Error struct {
	Response *NetworkResponse
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
