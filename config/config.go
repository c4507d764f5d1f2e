// Package config holds the collaborators shared by every builder: how
// descriptors are created and handed to the queue, and which parser is used
// when a builder sets none.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/parser"
	"github.com/adamwoolhether/volleyer/queue"
	"github.com/adamwoolhether/volleyer/request"
)

// Executor hands a finished descriptor to a submitter.
type Executor interface {
	Execute(ctx context.Context, sub queue.Submitter, d *request.Descriptor, h queue.Handler) error
}

// ExecutorFunc adapts a function to [Executor].
type ExecutorFunc func(ctx context.Context, sub queue.Submitter, d *request.Descriptor, h queue.Handler) error

func (f ExecutorFunc) Execute(ctx context.Context, sub queue.Submitter, d *request.Descriptor, h queue.Handler) error {
	return f(ctx, sub, d, h)
}

// DirectExecutor submits descriptors as they are.
type DirectExecutor struct{}

func (DirectExecutor) Execute(ctx context.Context, sub queue.Submitter, d *request.Descriptor, h queue.Handler) error {
	return sub.Submit(ctx, d, h)
}

// Configuration is immutable once built.
type Configuration struct {
	creator  request.Creator
	executor Executor
	parser   parser.Parser
	policy   request.RetryPolicy
	logger   *slog.Logger
}

// Option is a functional option for configuring a [Configuration] via [New].
type Option func(*options) error
type options struct {
	creator  request.Creator
	executor Executor
	parser   parser.Parser
	policy   *request.RetryPolicy
	logger   *slog.Logger
}

// WithCreator replaces the [request.DefaultCreator].
func WithCreator(c request.Creator) Option {
	return func(o *options) error {
		if err := assert.NotNil(c, "request creator"); err != nil {
			return err
		}
		o.creator = c
		return nil
	}
}

// WithExecutor replaces the [DirectExecutor].
func WithExecutor(e Executor) Option {
	return func(o *options) error {
		if err := assert.NotNil(e, "request executor"); err != nil {
			return err
		}
		o.executor = e
		return nil
	}
}

// WithParser sets the fallback parser used when a builder has no override.
// It defaults to [parser.Default].
func WithParser(p parser.Parser) Option {
	return func(o *options) error {
		if err := assert.NotNil(p, "parser"); err != nil {
			return err
		}
		o.parser = p
		return nil
	}
}

// WithRetryPolicy sets the policy new builders start with.
func WithRetryPolicy(p request.RetryPolicy) Option {
	return func(o *options) error {
		if err := p.Validate(); err != nil {
			return err
		}
		o.policy = &p
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

// New builds a configuration, filling unset collaborators with defaults.
func New(optFns ...Option) (*Configuration, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying config option: %w", err)
		}
	}

	cfg := &Configuration{
		creator:  request.DefaultCreator{},
		executor: DirectExecutor{},
		policy:   request.DefaultRetryPolicy(),
		logger:   slog.Default(),
	}

	if opts.creator != nil {
		cfg.creator = opts.creator
	}
	if opts.executor != nil {
		cfg.executor = opts.executor
	}
	if opts.policy != nil {
		cfg.policy = *opts.policy
	}
	if opts.logger != nil {
		cfg.logger = opts.logger
	}

	cfg.parser = opts.parser
	if cfg.parser == nil {
		cfg.parser = parser.Default()
	}

	return cfg, nil
}

func (c *Configuration) Creator() request.Creator { return c.creator }

func (c *Configuration) Executor() Executor { return c.executor }

// Parser returns the fallback parser.
func (c *Configuration) Parser() parser.Parser { return c.parser }

// RetryPolicy returns the policy new builders start with.
func (c *Configuration) RetryPolicy() request.RetryPolicy { return c.policy }

func (c *Configuration) Logger() *slog.Logger { return c.logger }

// Default is the process-wide configuration built from defaults.
var Default = sync.OnceValue(func() *Configuration {
	cfg, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: building default configuration: %v", err))
	}
	return cfg
})
