package queue

import (
	"context"
	"sync"
)

// Future is the handle to a value produced asynchronously. It resolves
// exactly once; later resolutions are ignored.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	val    T
	err    error
	cancel context.CancelFunc
}

// NewFuture returns an unresolved future. cancel, which may be nil, is
// invoked by [Future.Cancel] and once the future resolves.
func NewFuture[T any](cancel context.CancelFunc) *Future[T] {
	if cancel == nil {
		cancel = func() {}
	}

	return &Future[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Resolve settles the future. It reports whether this call won.
func (f *Future[T]) Resolve(val T, err error) bool {
	won := false
	f.once.Do(func() {
		f.val, f.err = val, err
		won = true
		close(f.done)
		f.cancel()
	})

	return won
}

// Done returns a channel that is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Get blocks until the future resolves or ctx ends.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Err blocks until the future resolves and returns its error.
func (f *Future[T]) Err() error {
	<-f.done
	return f.err
}

// Cancel cancels the work behind the future. The future still resolves,
// typically with a context error.
func (f *Future[T]) Cancel() {
	f.cancel()
}
