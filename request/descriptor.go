// Package request defines the immutable request descriptor handed to the
// executor, along with the pieces it is assembled from.
package request

import (
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/multipart"
)

// Request is what a transport needs to put a request on the wire.
type Request interface {
	Method() Method
	URL() string
	Headers() map[string]string
	BodyContentType() string
	Body() []byte
}

// Draft accumulates request configuration before a [Descriptor] exists.
// It is owned by a single builder and is copied when a descriptor is made.
type Draft struct {
	Method  Method
	URL     string
	Headers map[string]string
	Payload Payload
}

// Descriptor is an immutable, fully assembled request.
type Descriptor struct {
	id      string
	method  Method
	url     string
	headers map[string]string
	payload Payload
	policy  RetryPolicy
}

var (
	_ Request             = (*Descriptor)(nil)
	_ multipart.Container = (*Descriptor)(nil)
)

// NewDescriptor validates d and policy and returns a descriptor holding
// private copies of everything mutable.
func NewDescriptor(d Draft, policy RetryPolicy) (*Descriptor, error) {
	if err := assert.NotEmpty(d.URL, "URL"); err != nil {
		return nil, err
	}
	if !d.Method.Valid() {
		return nil, &assert.ArgumentError{Name: "HTTP method", Err: assert.ErrNilArgument}
	}
	if d.Payload.Kind() != PayloadNone && !d.Method.AllowsBody() {
		return nil, fmt.Errorf("%w: %s request cannot carry a %s body", assert.ErrInvalidArgument, d.Method, d.Payload.Kind())
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &Descriptor{
		id:      uuid.NewString(),
		method:  d.Method,
		url:     d.URL,
		headers: maps.Clone(d.Headers),
		payload: d.Payload.clone(),
		policy:  policy,
	}, nil
}

// ID uniquely identifies this descriptor in logs and traces.
func (d *Descriptor) ID() string { return d.id }

// Method returns the HTTP method.
func (d *Descriptor) Method() Method { return d.method }

// URL returns the request URL as given to the builder.
func (d *Descriptor) URL() string { return d.url }

// Headers returns a copy of the request headers.
func (d *Descriptor) Headers() map[string]string {
	h := maps.Clone(d.headers)
	if h == nil {
		h = make(map[string]string)
	}

	return h
}

// Payload returns the body variant. Its accessors hand out copies.
func (d *Descriptor) Payload() Payload { return d.payload }

// RetryPolicy returns the policy the queue attempts the request under.
func (d *Descriptor) RetryPolicy() RetryPolicy { return d.policy }

// BodyContentType returns the Content-Type the body is sent with.
func (d *Descriptor) BodyContentType() string { return d.payload.ContentType() }

// Body returns a copy of the encoded form or content body.
func (d *Descriptor) Body() []byte { return d.payload.Bytes() }

// HasMultipart reports whether the payload is multipart with at least one part.
func (d *Descriptor) HasMultipart() bool {
	return d.payload.Kind() == PayloadMultipart && !d.payload.multipart.IsEmpty()
}

// Multipart returns a copy of the multipart payload. Adding parts to it
// leaves the descriptor unchanged.
func (d *Descriptor) Multipart() *multipart.Multipart {
	return d.payload.Multipart()
}

// Replayable reports whether the body can be sent again on retry.
func (d *Descriptor) Replayable() bool {
	return d.payload.Kind() != PayloadMultipart || d.payload.multipart.Replayable()
}

// Creator assembles a descriptor from a draft. A nil descriptor with a nil
// error means the creator declined to build a request.
type Creator interface {
	Create(d Draft, policy RetryPolicy) (*Descriptor, error)
}

// CreatorFunc adapts a function to [Creator].
type CreatorFunc func(d Draft, policy RetryPolicy) (*Descriptor, error)

func (f CreatorFunc) Create(d Draft, policy RetryPolicy) (*Descriptor, error) {
	return f(d, policy)
}

// DefaultCreator always builds a descriptor via [NewDescriptor].
type DefaultCreator struct{}

func (DefaultCreator) Create(d Draft, policy RetryPolicy) (*Descriptor, error) {
	return NewDescriptor(d, policy)
}
