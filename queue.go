package volleyer

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/queue"
	"github.com/adamwoolhether/volleyer/throttle"
	"github.com/adamwoolhether/volleyer/transport"
)

// QueueOption defines optional settings for [NewRequestQueue].
//
// Transport settings (client, round tripper, timeout, user agent, redirects,
// body size, capabilities) configure the default HTTP stack; WithThrottle
// wraps it in a rate limiter; the rest configure the queue itself.
type QueueOption func(*queueOpts) error
type queueOpts struct {
	transport []transport.Option
	queue     []queue.Option
	throttle  *throttle.Config
	logger    *slog.Logger
}

// WithClient sends through a copy of hc. Later options may modify the copy.
func WithClient(hc *http.Client) QueueOption {
	return func(o *queueOpts) error {
		o.transport = append(o.transport, transport.WithClient(hc))
		return nil
	}
}

// WithTransport sets the round tripper, overriding the client's own.
func WithTransport(rt http.RoundTripper) QueueOption {
	return func(o *queueOpts) error {
		o.transport = append(o.transport, transport.WithRoundTripper(rt))
		return nil
	}
}

// WithTimeout bounds each HTTP exchange. Zero means no timeout.
func WithTimeout(d time.Duration) QueueOption {
	return func(o *queueOpts) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.transport = append(o.transport, transport.WithTimeout(d))
		return nil
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(header string) QueueOption {
	return func(o *queueOpts) error {
		o.transport = append(o.transport, transport.WithUserAgent(header))
		return nil
	}
}

// WithNoFollowRedirects returns 3xx responses instead of following them.
func WithNoFollowRedirects() QueueOption {
	return func(o *queueOpts) error {
		o.transport = append(o.transport, transport.WithNoFollowRedirects())
		return nil
	}
}

// WithMaxBodySize fails requests whose response body exceeds n bytes.
// Zero means unlimited.
func WithMaxBodySize(n int64) QueueOption {
	return func(o *queueOpts) error {
		o.transport = append(o.transport, transport.WithMaxBodySize(n))
		return nil
	}
}

// WithCapabilities overrides the probe the transport consults when picking
// its multipart body writer and content encodings.
func WithCapabilities(p capability.Probe) QueueOption {
	return func(o *queueOpts) error {
		o.transport = append(o.transport, transport.WithCapabilities(p))
		return nil
	}
}

// WithThrottle limits outgoing requests to rps per second, allowing bursts
// of up to burst.
func WithThrottle(rps, burst int) QueueOption {
	return func(o *queueOpts) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithConcurrency limits how many requests run at once. Zero means
// unlimited.
func WithConcurrency(n int) QueueOption {
	return func(o *queueOpts) error {
		o.queue = append(o.queue, queue.WithConcurrency(n))
		return nil
	}
}

// WithTracer sets the tracer used for per-request spans.
func WithTracer(tracer trace.Tracer) QueueOption {
	return func(o *queueOpts) error {
		o.queue = append(o.queue, queue.WithTracer(tracer))
		return nil
	}
}

// WithPropagator overrides the global propagator used to inject trace
// context into outgoing headers.
func WithPropagator(p propagation.TextMapPropagator) QueueOption {
	return func(o *queueOpts) error {
		o.queue = append(o.queue, queue.WithPropagator(p))
		return nil
	}
}

// WithErrorCollection makes [queue.Queue.Wait] return the failures recorded
// since the previous Wait.
func WithErrorCollection() QueueOption {
	return func(o *queueOpts) error {
		o.queue = append(o.queue, queue.WithErrorCollection())
		return nil
	}
}

// WithLogger injects a custom logger into every layer of the queue.
func WithLogger(logger *slog.Logger) QueueOption {
	return func(o *queueOpts) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// NewRequestQueue builds a [queue.Queue] over the default transport stack.
// If not specified, [http.DefaultTransport] is used.
func NewRequestQueue(optFns ...QueueOption) (*queue.Queue, error) {
	var opts queueOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying queue option: %w", err)
		}
	}

	logger := slog.Default()
	if opts.logger != nil {
		logger = opts.logger
	}

	stack, err := transport.NewDefault(append(opts.transport, transport.WithLogger(logger))...)
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}

	var network transport.Transport = stack
	if opts.throttle != nil {
		network, err = throttle.New(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return logger }, stack)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
	}

	return queue.New(network, append(opts.queue, queue.WithLogger(logger))...)
}
