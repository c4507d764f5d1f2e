package transport

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/volleyer/capability"
)

// Option is a functional option for configuring [NewHTTP] and [NewDefault].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	noFollowRedirects bool
	maxBodySize       int64
	logger            *slog.Logger
	probe             capability.Probe
}

// WithClient replaces the default [http.Client]. The client is copied, so
// later changes to it have no effect.
func WithClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithRoundTripper sets a custom [http.RoundTripper] as the base transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("round tripper must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout sets the overall per-transfer timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.userAgent = header
		return nil
	}
}

// WithNoFollowRedirects returns redirect responses as they are.
func WithNoFollowRedirects() Option {
	return func(o *options) error {
		o.noFollowRedirects = true
		return nil
	}
}

// WithMaxBodySize caps the response body size. A larger body fails the
// request with [ErrBodyTooLarge] rather than being truncated. Zero means
// unlimited.
func WithMaxBodySize(n int64) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("max body size must not be negative")
		}
		o.maxBodySize = n
		return nil
	}
}

// WithLogger injects a custom [slog.Logger].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithCapabilities overrides the capability probe consulted at
// construction, which otherwise is [capability.Builtin].
func WithCapabilities(p capability.Probe) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("probe must not be nil")
		}
		o.probe = p
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
