package volleyer

import (
	"github.com/adamwoolhether/volleyer/builder"
	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/parser"
	"github.com/adamwoolhether/volleyer/queue"
	"github.com/adamwoolhether/volleyer/request"
	"github.com/adamwoolhether/volleyer/transport"
)

// ————————————————————————————————————————————————————————————————————
// Type aliases – re-export user-facing types.
// ————————————————————————————————————————————————————————————————————

type (
	// RequestBuilder is an open request, see [builder.RequestBuilder].
	RequestBuilder = builder.RequestBuilder

	// ResponseBuilder decodes the response into T and delivers it.
	ResponseBuilder[T any] = builder.ResponseBuilder[T]

	// BlockingResponseBuilder is a ResponseBuilder that waits for its result.
	BlockingResponseBuilder[T any] = builder.BlockingResponseBuilder[T]

	// Future is the handle of an executing request.
	Future[T any] = queue.Future[T]

	// RetryPolicy controls attempts and backoff per request.
	RetryPolicy = request.RetryPolicy

	// NetworkResponse is the raw result of a transfer.
	NetworkResponse = request.NetworkResponse

	// StateError reports a builder call in the wrong lifecycle state.
	StateError = builder.StateError

	// ArgumentError reports an absent or invalid configuration argument.
	ArgumentError = assert.ArgumentError

	// UnexpectedStatusError is returned for non-2xx responses.
	UnexpectedStatusError = request.UnexpectedStatusError

	// ParseError reports a body that could not be decoded.
	ParseError = parser.ParseError

	// RequestError is the generic request-level failure.
	RequestError = request.Error
)

// ————————————————————————————————————————————————————————————————————
// Sentinel errors
// ————————————————————————————————————————————————————————————————————

var (
	// ErrNilArgument indicates a required argument was absent.
	ErrNilArgument = assert.ErrNilArgument

	// ErrInvalidArgument indicates an argument was present but unusable.
	ErrInvalidArgument = assert.ErrInvalidArgument

	// ErrIllegalState indicates a builder was used after it was handed off
	// or executed.
	ErrIllegalState = builder.ErrIllegalState

	// ErrUnexpectedStatusCode indicates a non-2xx response.
	ErrUnexpectedStatusCode = request.ErrUnexpectedStatusCode

	// ErrAuthFailure indicates a 401 or 403 response.
	ErrAuthFailure = request.ErrAuthFailure

	// ErrMalformed indicates a body that is not valid for its content type.
	ErrMalformed = parser.ErrMalformed

	// ErrUnsupportedCharset indicates a body in an unknown character set.
	ErrUnsupportedCharset = parser.ErrUnsupportedCharset

	// ErrUnresolved indicates no parser handles the response content type.
	ErrUnresolved = parser.ErrUnresolved

	// ErrShutdown indicates the request queue was shut down.
	ErrShutdown = queue.ErrShutdown

	// ErrBodyTooLarge indicates a response body over the configured maximum.
	ErrBodyTooLarge = transport.ErrBodyTooLarge

	// ErrNoResponse indicates a response was required but absent.
	ErrNoResponse = request.ErrNoResponse
)

// ————————————————————————————————————————————————————————————————————
// Builder forwarding functions
// ————————————————————————————————————————————————————————————————————

// WithTarget hands b off to a response builder decoding into T.
func WithTarget[T any](b *RequestBuilder) (*ResponseBuilder[T], error) {
	return builder.WithTarget[T](b)
}

// WithBlockingTarget hands b off to a blocking response builder decoding
// into T.
func WithBlockingTarget[T any](b *RequestBuilder) (*BlockingResponseBuilder[T], error) {
	return builder.WithBlockingTarget[T](b)
}

// DefaultRetryPolicy allows one retry after a short pause.
func DefaultRetryPolicy() RetryPolicy { return request.DefaultRetryPolicy() }

// NoRetryPolicy attempts a request exactly once.
func NoRetryPolicy() RetryPolicy { return request.NoRetryPolicy() }
