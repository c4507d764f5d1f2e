package builder

import (
	"context"

	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/parser"
	"github.com/adamwoolhether/volleyer/queue"
)

// ResponseBuilder shapes how the response of a call is decoded and
// delivered. Results arrive through the returned future and, when set, the
// listeners, which run on the queue's goroutine.
type ResponseBuilder[T any] struct {
	req         *RequestBuilder
	parser      parser.Parser
	listener    func(T)
	errListener func(error)
}

// WithTarget hands b off to a response builder decoding into T. It may be
// called once per request builder.
func WithTarget[T any](b *RequestBuilder) (*ResponseBuilder[T], error) {
	if err := assert.NotNil(b, "request builder"); err != nil {
		return nil, err
	}
	if err := b.lc.advance("WithTarget", StateOpen, StateTargetSet); err != nil {
		return nil, err
	}

	return &ResponseBuilder[T]{req: b}, nil
}

// WithResponseParser overrides the configuration's parser for this call.
func (r *ResponseBuilder[T]) WithResponseParser(p parser.Parser) (*ResponseBuilder[T], error) {
	if err := r.req.lc.require("WithResponseParser", StateTargetSet); err != nil {
		return nil, err
	}
	if err := assert.NotNil(p, "parser"); err != nil {
		return nil, err
	}

	r.parser = p
	return r, nil
}

// WithListener registers fn for the decoded value. It may be set once.
func (r *ResponseBuilder[T]) WithListener(fn func(T)) (*ResponseBuilder[T], error) {
	if err := r.req.lc.require("WithListener", StateTargetSet); err != nil {
		return nil, err
	}
	if err := assert.NotNil(fn, "listener"); err != nil {
		return nil, err
	}
	if r.listener != nil {
		return nil, alreadySet("WithListener", StateTargetSet)
	}

	r.listener = fn
	return r, nil
}

// WithErrorListener registers fn for failures. It may be set once.
func (r *ResponseBuilder[T]) WithErrorListener(fn func(error)) (*ResponseBuilder[T], error) {
	if err := r.req.lc.require("WithErrorListener", StateTargetSet); err != nil {
		return nil, err
	}
	if err := assert.NotNil(fn, "error listener"); err != nil {
		return nil, err
	}
	if r.errListener != nil {
		return nil, alreadySet("WithErrorListener", StateTargetSet)
	}

	r.errListener = fn
	return r, nil
}

// Execute submits the request. ok is false, with a nil error, when the
// configured creator declined to build a request.
func (r *ResponseBuilder[T]) Execute(ctx context.Context) (fut *queue.Future[T], ok bool, err error) {
	return execute(ctx, r.req, StateTargetSet, r.parser, r.listener, r.errListener)
}

// BlockingResponseBuilder is a ResponseBuilder whose Execute waits for the
// result.
type BlockingResponseBuilder[T any] struct {
	req    *RequestBuilder
	parser parser.Parser
}

// WithBlockingTarget hands b off to a blocking response builder decoding
// into T. It may be called once per request builder.
func WithBlockingTarget[T any](b *RequestBuilder) (*BlockingResponseBuilder[T], error) {
	if err := assert.NotNil(b, "request builder"); err != nil {
		return nil, err
	}
	if err := b.lc.advance("WithBlockingTarget", StateOpen, StateTargetSet); err != nil {
		return nil, err
	}

	return &BlockingResponseBuilder[T]{req: b}, nil
}

// WithResponseParser overrides the configuration's parser for this call.
func (r *BlockingResponseBuilder[T]) WithResponseParser(p parser.Parser) (*BlockingResponseBuilder[T], error) {
	if err := r.req.lc.require("WithResponseParser", StateTargetSet); err != nil {
		return nil, err
	}
	if err := assert.NotNil(p, "parser"); err != nil {
		return nil, err
	}

	r.parser = p
	return r, nil
}

// Execute submits the request and waits for its result or for ctx to end.
// ok is false, with a nil error, when the creator declined to build a
// request.
func (r *BlockingResponseBuilder[T]) Execute(ctx context.Context) (val T, ok bool, err error) {
	fut, ok, err := execute[T](ctx, r.req, StateTargetSet, r.parser, nil, nil)
	if err != nil || !ok {
		return val, ok, err
	}

	val, err = fut.Get(ctx)
	if err != nil {
		fut.Cancel()
		return val, true, err
	}

	return val, true, nil
}
