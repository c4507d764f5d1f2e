package parser

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/request"
)

// Registry selects a parser by response content type. It is itself a
// [Parser], so it can stand in wherever a single parser is expected.
//
// Lookups never block: registrations copy the table and swap it in.
type Registry struct {
	mu       sync.Mutex
	table    atomic.Pointer[map[string]Parser]
	fallback Parser
}

// RegistryOption configures a [Registry].
type RegistryOption func(*Registry) error

// WithFallback sets the parser used when no registered type matches.
func WithFallback(p Parser) RegistryOption {
	return func(r *Registry) error {
		if err := assert.NotNil(p, "fallback parser"); err != nil {
			return err
		}
		r.fallback = p
		return nil
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.table.Store(&map[string]Parser{})

	return r, nil
}

// Register maps each content type to p. Types are normalized the same way
// responses are; a later registration for a type replaces the earlier one.
func (r *Registry) Register(p Parser, contentTypes ...string) error {
	if err := assert.NotNil(p, "parser"); err != nil {
		return err
	}
	if len(contentTypes) == 0 {
		return fmt.Errorf("%w: no content types given", assert.ErrInvalidArgument)
	}

	keys := make([]string, 0, len(contentTypes))
	for _, ct := range contentTypes {
		key := MediaType(ct)
		if key == "" {
			return fmt.Errorf("%w: content type %q", assert.ErrInvalidArgument, ct)
		}
		keys = append(keys, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := maps.Clone(*r.table.Load())
	for _, key := range keys {
		next[key] = p
	}
	r.table.Store(&next)

	return nil
}

// Add registers p for the types it declares.
func (r *Registry) Add(p TypedParser) error {
	if err := assert.NotNil(p, "parser"); err != nil {
		return err
	}
	return r.Register(p, p.ContentTypes()...)
}

// Lookup returns the registered parser that best matches contentType: an
// exact match, then the structured-syntax suffix (application/x+json maps
// to application/json), then type/*, then */*.
func (r *Registry) Lookup(contentType string) (Parser, bool) {
	table := *r.table.Load()
	mt := MediaType(contentType)

	for _, key := range candidates(mt) {
		if p, ok := table[key]; ok {
			return p, true
		}
	}

	return nil, false
}

// Resolve returns the parser for contentType, the fallback when none
// matches, or an [UnresolvedError].
func (r *Registry) Resolve(contentType string) (Parser, error) {
	if p, ok := r.Lookup(contentType); ok {
		return p, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}

	return nil, &UnresolvedError{ContentType: contentType}
}

// ContentTypes lists the registered types in sorted order.
func (r *Registry) ContentTypes() []string {
	return slices.Sorted(maps.Keys(*r.table.Load()))
}

// Parse resolves a parser from the response's Content-Type and delegates to
// it. A panicking parser is reported as a [request.Error].
func (r *Registry) Parse(resp *request.NetworkResponse, v any) (err error) {
	if resp == nil {
		return &request.Error{Err: request.ErrNoResponse}
	}

	p, err := r.Resolve(resp.ContentType())
	if err != nil {
		return err
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = &request.Error{Response: resp, Err: fmt.Errorf("parser panic: %v", rec)}
		}
	}()

	return p.Parse(resp, v)
}

func candidates(mt string) []string {
	if mt == "" {
		return []string{"*/*"}
	}

	out := []string{mt}

	typ, sub, _ := strings.Cut(mt, "/")
	if i := strings.LastIndexByte(sub, '+'); i >= 0 && i < len(sub)-1 {
		out = append(out, "application/"+sub[i+1:])
	}

	return append(out, typ+"/*", "*/*")
}
