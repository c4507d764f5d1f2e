package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/adamwoolhether/volleyer/config"
	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/parser"
	"github.com/adamwoolhether/volleyer/queue"
	"github.com/adamwoolhether/volleyer/request"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := cfg.Creator().(request.DefaultCreator); !ok {
		t.Errorf("Creator() = %T, want request.DefaultCreator", cfg.Creator())
	}
	if _, ok := cfg.Executor().(config.DirectExecutor); !ok {
		t.Errorf("Executor() = %T, want config.DirectExecutor", cfg.Executor())
	}
	if cfg.Parser() != parser.Parser(parser.Default()) {
		t.Error("Parser() should default to the shared registry")
	}
	if cfg.RetryPolicy() != request.DefaultRetryPolicy() {
		t.Errorf("RetryPolicy() = %+v", cfg.RetryPolicy())
	}

	if config.Default() != config.Default() {
		t.Error("Default() must return the same instance")
	}
}

func TestNew_NilCollaborators(t *testing.T) {
	tests := map[string]config.Option{
		"creator":  config.WithCreator(nil),
		"executor": config.WithExecutor(nil),
		"parser":   config.WithParser(nil),
	}

	for name, opt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := config.New(opt); !errors.Is(err, assert.ErrNilArgument) {
				t.Errorf("expected ErrNilArgument, got %v", err)
			}
		})
	}

	if _, err := config.New(config.WithRetryPolicy(request.RetryPolicy{})); !errors.Is(err, assert.ErrInvalidArgument) {
		t.Errorf("invalid policy: expected ErrInvalidArgument, got %v", err)
	}
}

type recordingSubmitter struct {
	got *request.Descriptor
}

func (r *recordingSubmitter) Submit(_ context.Context, d *request.Descriptor, h queue.Handler) error {
	r.got = d
	h(nil, nil)
	return nil
}

func TestDirectExecutor(t *testing.T) {
	d, err := request.NewDescriptor(request.Draft{Method: request.GET, URL: "http://test"}, request.DefaultRetryPolicy())
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}

	var sub recordingSubmitter
	called := false
	if err := (config.DirectExecutor{}).Execute(t.Context(), &sub, d, func(*request.NetworkResponse, error) { called = true }); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if sub.got != d || !called {
		t.Errorf("descriptor not submitted as-is: got %v, handler called %v", sub.got, called)
	}
}
