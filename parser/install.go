package parser

import (
	"fmt"
	"sync"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/internal/assert"
)

// Factory builds a parser for an optional codec.
type Factory func() TypedParser

// factories holds every codec linked into the binary, keyed by capability.
// It is written only from init funcs.
var factories = map[string]Factory{}

func register(id string, f Factory) {
	factories[id] = f
}

// generations groups codecs that serve the same content types, newest
// first. Install picks at most one codec per group.
var generations = [][]string{
	{capability.JSONv2, capability.JSON},
	{capability.XML},
	{capability.YAML},
	{capability.CBOR},
}

// Install adds a parser to r for each codec group whose capability probe
// reports available, preferring the newest generation. Codecs that are
// missing are skipped without error. It returns the capabilities installed.
func Install(r *Registry, probe capability.Probe) ([]string, error) {
	if err := assert.NotNil(r, "registry"); err != nil {
		return nil, err
	}
	if err := assert.NotNil(probe, "probe"); err != nil {
		return nil, err
	}
	probe = capability.Safe(probe)

	var installed []string
	for _, group := range generations {
		for _, id := range group {
			f, linked := factories[id]
			if !linked || !probe.IsAvailable(id) {
				continue
			}
			if err := r.Add(f()); err != nil {
				return installed, fmt.Errorf("installing %s: %w", id, err)
			}
			installed = append(installed, id)
			break
		}
	}

	return installed, nil
}

// New returns a registry populated by [Install] with the given probe plus
// a [StringParser] for plain text.
func New(probe capability.Probe, opts ...RegistryOption) (*Registry, error) {
	r, err := NewRegistry(opts...)
	if err != nil {
		return nil, err
	}

	if err := r.Add(StringParser{}); err != nil {
		return nil, err
	}
	if _, err := Install(r, probe); err != nil {
		return nil, err
	}

	return r, nil
}

// Default is the shared registry built from the capabilities compiled in.
var Default = sync.OnceValue(func() *Registry {
	r, err := New(capability.Builtin())
	if err != nil {
		panic(fmt.Sprintf("parser: building default registry: %v", err))
	}
	return r
})
