// Package transport moves a [request.Request] over the wire.
//
// [HTTP] is the base path. [Multipart] streams multipart/form-data bodies
// with a body writer chosen once, at construction, from the environment's
// capabilities. [Dispatcher] routes each request to one or the other
// depending on whether it reports a multipart payload.
package transport

import (
	"context"

	"github.com/adamwoolhether/volleyer/request"
)

// Transport performs a single transfer. Extra headers are applied after the
// request's own headers and win on conflict.
type Transport interface {
	Execute(ctx context.Context, req request.Request, extra map[string]string) (*request.NetworkResponse, error)
}

// Func adapts a function to [Transport].
type Func func(ctx context.Context, req request.Request, extra map[string]string) (*request.NetworkResponse, error)

func (f Func) Execute(ctx context.Context, req request.Request, extra map[string]string) (*request.NetworkResponse, error) {
	return f(ctx, req, extra)
}

// NewDefault builds the standard stack: an [HTTP] base transport and a
// [Multipart] transport sharing its client, behind a [Dispatcher].
func NewDefault(opts ...Option) (*Dispatcher, error) {
	base, err := NewHTTP(opts...)
	if err != nil {
		return nil, err
	}

	mp, err := NewMultipart(base, base.probe)
	if err != nil {
		return nil, err
	}

	return NewDispatcher(base, mp)
}
