package builder

import (
	"context"
	"fmt"

	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/parser"
	"github.com/adamwoolhether/volleyer/queue"
	"github.com/adamwoolhether/volleyer/request"
)

// execute runs the terminal step shared by every builder. The builder is
// done when it returns, whatever the outcome.
func execute[T any](ctx context.Context, b *RequestBuilder, from State, p parser.Parser, onValue func(T), onError func(error)) (*queue.Future[T], bool, error) {
	if err := b.lc.require("Execute", from); err != nil {
		return nil, false, err
	}
	if err := assert.NotNil(ctx, "context"); err != nil {
		return nil, false, err
	}
	if err := b.lc.advance("Execute", from, StateExecuting); err != nil {
		return nil, false, err
	}
	defer b.release()

	cfg, sub := b.cfg, b.sub
	logger := cfg.Logger()

	d, err := cfg.Creator().Create(b.draft(), b.policy)
	if err != nil {
		return nil, false, err
	}
	if d == nil {
		logger.Debug("request creator declined", "method", b.method, "url", b.url)
		return nil, false, nil
	}

	if p == nil {
		p = cfg.Parser()
	}

	ctx, cancel := context.WithCancel(ctx)
	fut := queue.NewFuture[T](cancel)

	handler := func(resp *request.NetworkResponse, err error) {
		var val T
		if err == nil {
			val, err = decode[T](p, resp)
		}

		if err != nil {
			fut.Resolve(val, err)
			if onError != nil {
				onError(err)
			}
			return
		}

		fut.Resolve(val, nil)
		if onValue != nil {
			onValue(val)
		}
	}

	if err := cfg.Executor().Execute(ctx, sub, d, handler); err != nil {
		cancel()
		return nil, false, err
	}

	return fut, true, nil
}

// decode runs p, turning a panic into a request error.
func decode[T any](p parser.Parser, resp *request.NetworkResponse) (val T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			val, err = zero, &request.Error{Response: resp, Err: fmt.Errorf("parser panic: %v", rec)}
		}
	}()

	return parser.Parse[T](p, resp)
}
