// Package capability answers whether an optional feature is present in
// the running binary.
//
// Features guarded by build tags call [Provide] from an init func, so the
// [Builtin] probe reflects exactly what was compiled in. Callers that need
// a different answer, such as tests, supply their own [Probe].
package capability

import (
	"maps"
	"slices"
	"sync"
)

// Well-known capability ids.
const (
	JSON            = "encoding/json"
	JSONv2          = "github.com/go-json-experiment/json"
	XML             = "encoding/xml"
	YAML            = "gopkg.in/yaml.v3"
	CBOR            = "github.com/fxamacker/cbor/v2"
	ChunkedUpload   = "transport/chunked-upload"
	ContentEncoding = "transport/content-encoding"
)

// Probe reports whether a capability is available.
type Probe interface {
	IsAvailable(id string) bool
}

// Func adapts a function to [Probe].
type Func func(id string) bool

func (f Func) IsAvailable(id string) bool { return f(id) }

// Set is a fixed collection of available capabilities.
type Set map[string]bool

// NewSet returns a Set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func (s Set) IsAvailable(id string) bool { return s[id] }

// Without returns a copy of s with ids removed.
func (s Set) Without(ids ...string) Set {
	cpy := maps.Clone(s)
	for _, id := range ids {
		delete(cpy, id)
	}
	return cpy
}

var (
	mu      sync.RWMutex
	builtin = NewSet(JSON, XML, ChunkedUpload, ContentEncoding)
)

// Provide marks id as compiled in. It is meant to be called from init.
func Provide(id string) {
	mu.Lock()
	defer mu.Unlock()
	builtin[id] = true
}

// Builtin returns a snapshot of the capabilities compiled into the binary.
func Builtin() Set {
	mu.RLock()
	defer mu.RUnlock()
	return maps.Clone(builtin)
}

// List returns the ids of s in sorted order.
func (s Set) List() []string {
	ids := make([]string, 0, len(s))
	for id, ok := range s {
		if ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Safe wraps p so a panicking probe reads as "unavailable".
func Safe(p Probe) Probe {
	return Func(func(id string) (ok bool) {
		defer func() {
			if recover() != nil {
				ok = false
			}
		}()
		return p.IsAvailable(id)
	})
}
