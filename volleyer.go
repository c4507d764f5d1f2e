// Package volleyer is a fluent, asynchronous HTTP request library.
//
// A [Volleyer] hands out one-shot request builders bound to a request queue
// and a shared [config.Configuration]:
//
//	q, err := volleyer.NewRequestQueue(volleyer.WithTimeout(5 * time.Second))
//	v, err := volleyer.New(q)
//
//	b, err := v.Get("https://api.example.com/posts/1")
//	rb, err := volleyer.WithTarget[Post](b)
//	fut, ok, err := rb.Execute(ctx)
//	post, err := fut.Get(ctx)
//
// The response body is decoded by the parser registered for its content
// type, and non-2xx responses fail with an [UnexpectedStatusError].
package volleyer

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/volleyer/builder"
	"github.com/adamwoolhether/volleyer/config"
	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/queue"
	"github.com/adamwoolhether/volleyer/request"
)

// Volleyer creates request builders. It is safe for concurrent use; the
// builders it returns are not.
type Volleyer struct {
	queue  queue.Submitter
	cfg    *config.Configuration
	policy request.RetryPolicy
}

// Option is a functional option for configuring a [Volleyer] via [New].
type Option func(*options) error
type options struct {
	cfg    *config.Configuration
	policy *request.RetryPolicy
}

// WithConfiguration replaces [config.Default].
func WithConfiguration(cfg *config.Configuration) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("configuration must not be nil")
		}
		o.cfg = cfg
		return nil
	}
}

// WithRetryPolicy sets the policy builders start with. It defaults to the
// configuration's policy.
func WithRetryPolicy(p request.RetryPolicy) Option {
	return func(o *options) error {
		if err := p.Validate(); err != nil {
			return err
		}
		o.policy = &p
		return nil
	}
}

// New returns a Volleyer submitting to q.
func New(q queue.Submitter, optFns ...Option) (*Volleyer, error) {
	if err := assert.NotNil(q, "request queue"); err != nil {
		return nil, err
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying volleyer option: %w", err)
		}
	}

	v := &Volleyer{
		queue: q,
		cfg:   config.Default(),
	}
	if opts.cfg != nil {
		v.cfg = opts.cfg
	}

	v.policy = v.cfg.RetryPolicy()
	if opts.policy != nil {
		v.policy = *opts.policy
	}

	return v, nil
}

// Configuration returns the configuration shared by every builder.
func (v *Volleyer) Configuration() *config.Configuration { return v.cfg }

// Request returns an open builder for method and rawURL.
func (v *Volleyer) Request(method request.Method, rawURL string) (*RequestBuilder, error) {
	policy := v.policy
	return builder.New(v.queue, v.cfg, rawURL, method, &policy)
}

// Get returns an open GET builder for rawURL.
func (v *Volleyer) Get(rawURL string) (*RequestBuilder, error) {
	return v.Request(request.GET, rawURL)
}

// Post returns an open POST builder for rawURL.
func (v *Volleyer) Post(rawURL string) (*RequestBuilder, error) {
	return v.Request(request.POST, rawURL)
}

// Put returns an open PUT builder for rawURL.
func (v *Volleyer) Put(rawURL string) (*RequestBuilder, error) {
	return v.Request(request.PUT, rawURL)
}

// Patch returns an open PATCH builder for rawURL.
func (v *Volleyer) Patch(rawURL string) (*RequestBuilder, error) {
	return v.Request(request.PATCH, rawURL)
}

// Delete returns an open DELETE builder for rawURL.
func (v *Volleyer) Delete(rawURL string) (*RequestBuilder, error) {
	return v.Request(request.DELETE, rawURL)
}

// Head returns an open HEAD builder for rawURL.
func (v *Volleyer) Head(rawURL string) (*RequestBuilder, error) {
	return v.Request(request.HEAD, rawURL)
}

// Options returns an open OPTIONS builder for rawURL.
func (v *Volleyer) Options(rawURL string) (*RequestBuilder, error) {
	return v.Request(request.OPTIONS, rawURL)
}
