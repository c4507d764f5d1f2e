package queue

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/request"
)

// Option is a functional option for configuring a [Queue] via [New].
type Option func(*options) error
type options struct {
	Concurrency int `json:"concurrency" validate:"gte=0,lte=4096"`

	logger     *slog.Logger
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	collectErrors bool
}

// WithConcurrency limits how many requests run at once. Zero, the default,
// means unlimited.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		o.Concurrency = n
		if err := request.Validate(o); err != nil {
			return fmt.Errorf("%w: concurrency[%d]: %w", assert.ErrInvalidArgument, n, err)
		}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Queue].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer injects the tracer used for per-request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithPropagator overrides the global propagator used to inject trace
// context into outgoing request headers.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("propagator must not be nil")
		}
		o.propagator = p
		return nil
	}
}

// WithErrorCollection makes [Queue.Wait] return the failures recorded since
// the previous Wait. Failures accumulate until Wait is called, so a queue
// that never waits should not enable it.
func WithErrorCollection() Option {
	return func(o *options) error {
		o.collectErrors = true
		return nil
	}
}
