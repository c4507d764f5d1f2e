// Package queue runs request descriptors concurrently against a transport.
//
// Each submitted descriptor is attempted according to its retry policy and
// its handler is called exactly once with the final response or error.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/request"
	"github.com/adamwoolhether/volleyer/transport"
)

// ErrShutdown is returned for work submitted after [Queue.Shutdown].
var ErrShutdown = errors.New("queue is shut down")

// Handler receives the outcome of one submitted descriptor. A non-nil
// response may accompany an error when the server answered with a
// non-success status.
type Handler func(resp *request.NetworkResponse, err error)

// Submitter accepts descriptors for asynchronous execution.
type Submitter interface {
	Submit(ctx context.Context, d *request.Descriptor, h Handler) error
}

// Queue executes descriptors on their own goroutines, bounded by an
// optional concurrency limit.
type Queue struct {
	network    transport.Transport
	logger     *slog.Logger
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	collect  bool
	errs     []error
}

var _ Submitter = (*Queue)(nil)

// New returns a queue sending through network.
func New(network transport.Transport, optFns ...Option) (*Queue, error) {
	if err := assert.NotNil(network, "network transport"); err != nil {
		return nil, err
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying queue option: %w", err)
		}
	}

	q := &Queue{
		network:    network,
		logger:     slog.Default(),
		tracer:     noop.NewTracerProvider().Tracer("no-op tracer"),
		propagator: otel.GetTextMapPropagator(),
	}

	if opts.logger != nil {
		q.logger = opts.logger
	}
	if opts.tracer != nil {
		q.tracer = opts.tracer
	}
	if opts.propagator != nil {
		q.propagator = opts.propagator
	}
	if opts.Concurrency > 0 {
		q.sem = make(chan struct{}, opts.Concurrency)
	}
	q.collect = opts.collectErrors

	return q, nil
}

// Submit schedules d. h is called exactly once, from another goroutine,
// unless Submit itself returns an error.
func (q *Queue) Submit(ctx context.Context, d *request.Descriptor, h Handler) error {
	if err := assert.NotNil(ctx, "context"); err != nil {
		return err
	}
	if err := assert.NotNil(d, "descriptor"); err != nil {
		return err
	}
	if err := assert.NotNil(h, "handler"); err != nil {
		return err
	}
	if q.shutdown.Load() {
		return ErrShutdown
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		resp, err := q.run(ctx, d)
		if err != nil && q.collect {
			q.recordErr(err)
		}
		q.deliver(d, h, resp, err)
	}()

	return nil
}

// Wait blocks until all submitted work completes. With [WithErrorCollection]
// it also returns every failure recorded since the previous Wait, joined;
// otherwise failures reach only their handlers and Wait returns nil.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	err := errors.Join(q.errs...)
	q.errs = nil

	return err
}

// Shutdown rejects new work. Work already submitted still runs.
func (q *Queue) Shutdown() {
	q.shutdown.Store(true)
}

func (q *Queue) run(ctx context.Context, d *request.Descriptor) (*request.NetworkResponse, error) {
	if q.sem != nil {
		select {
		case q.sem <- struct{}{}:
			defer func() {
				<-q.sem
			}()
		case <-ctx.Done():
			return nil, &request.Error{Err: ctx.Err()}
		}
	}

	if q.shutdown.Load() {
		return nil, ErrShutdown
	}

	ctx, span := q.tracer.Start(ctx, "volleyer.request", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", d.Method().String()),
		attribute.String("url.full", d.URL()),
		attribute.String("volleyer.request_id", d.ID()),
	)

	extra := make(map[string]string)
	q.propagator.Inject(ctx, propagation.MapCarrier(extra))

	q.logger.Debug("request dispatched", "id", d.ID(), "method", d.Method(), "url", d.URL())

	start := time.Now()
	resp, attempts, err := q.attempt(ctx, d, extra)
	span.SetAttributes(attribute.Int("volleyer.attempts", attempts))
	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	}

	if err != nil {
		var statusErr *request.UnexpectedStatusError
		if !errors.As(err, &statusErr) && !errors.Is(err, ErrShutdown) {
			err = &request.Error{Response: resp, Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		q.logger.Debug("request failed", "id", d.ID(), "attempts", attempts, "elapsed", time.Since(start).String(), "error", err)
		return resp, err
	}

	q.logger.Debug("request completed", "id", d.ID(), "status", resp.StatusCode, "attempts", attempts, "elapsed", time.Since(start).String())

	return resp, nil
}

func (q *Queue) deliver(d *request.Descriptor, h Handler, resp *request.NetworkResponse, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			q.logger.Error("response handler panicked", "id", d.ID(), "panic", rec)
		}
	}()

	h(resp, err)
}

// recordErr appends err to the queue's error slice under the mutex.
func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}

// attempt runs the transfer under d's retry policy. Transport failures, 5xx
// and 429 responses are retried; any other status and an oversized body are
// final. A descriptor
// whose body cannot be sent twice gets a single try.
func (q *Queue) attempt(ctx context.Context, d *request.Descriptor, extra map[string]string) (*request.NetworkResponse, int, error) {
	policy := d.RetryPolicy()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.MaxInterval = policy.MaxInterval
	exp.Multiplier = policy.Multiplier

	tries := uint(policy.MaxAttempts)
	if !d.Replayable() {
		tries = 1
	}

	var (
		attempts int
		last     *request.NetworkResponse
	)
	op := func() (*request.NetworkResponse, error) {
		attempts++

		actx, cancel := ctx, context.CancelFunc(func() {})
		if policy.Timeout > 0 {
			actx, cancel = context.WithTimeout(ctx, policy.Timeout)
		}
		defer cancel()

		resp, err := q.network.Execute(actx, d, extra)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, transport.ErrBodyTooLarge) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		last = resp

		if err := request.CheckStatus(resp); err != nil {
			if !retryable(resp.StatusCode) {
				return resp, backoff.Permanent(err)
			}
			if secs, ok := retryAfter(resp); ok {
				return resp, fmt.Errorf("%w: %w", err, backoff.RetryAfter(secs))
			}
			return resp, err
		}

		return resp, nil
	}

	notify := func(err error, next time.Duration) {
		q.logger.Warn("retrying request", "id", d.ID(), "attempt", attempts, "delay", next.String(), "error", err)
	}

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(notify),
	)
	if resp == nil {
		resp = last
	}

	return resp, attempts, finalError(err)
}

func retryable(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

func retryAfter(resp *request.NetworkResponse) (int, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}

	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}

	return secs, true
}

// finalError strips the retry bookkeeping backoff wraps around the last error.
func finalError(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}

	var statusErr *request.UnexpectedStatusError
	var hint *backoff.RetryAfterError
	if errors.As(err, &hint) && errors.As(err, &statusErr) {
		return statusErr
	}

	return err
}
