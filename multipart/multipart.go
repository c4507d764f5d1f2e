// Package multipart models multipart/form-data request payloads.
//
// A [Multipart] is an ordered list of named parts. Parts are encoded in
// the order they were added, and file or stream parts are copied straight
// from their source so the payload is never held in memory as a whole.
package multipart

import (
	"fmt"
	"io"
	mimemultipart "mime/multipart"
	"slices"

	"github.com/google/uuid"
)

// Container is implemented by requests that can carry a multipart payload.
// A Container may still report false from HasMultipart for a given
// instance, in which case Multipart must not be consulted.
type Container interface {
	HasMultipart() bool
	Multipart() *Multipart
}

// Multipart is an ordered collection of parts sharing one boundary.
type Multipart struct {
	boundary string
	parts    []Part
}

// New returns a Multipart holding parts, in order.
func New(parts ...Part) *Multipart {
	return &Multipart{
		boundary: "volleyer-" + uuid.NewString(),
		parts:    slices.Clone(parts),
	}
}

// Add appends p after the existing parts.
func (m *Multipart) Add(p Part) {
	m.parts = append(m.parts, p)
}

// Parts returns a copy of the parts in write order.
func (m *Multipart) Parts() []Part {
	if m == nil {
		return nil
	}

	return slices.Clone(m.parts)
}

// Len reports the number of parts.
func (m *Multipart) Len() int {
	if m == nil {
		return 0
	}

	return len(m.parts)
}

// IsEmpty reports whether there is nothing to write.
func (m *Multipart) IsEmpty() bool {
	return m.Len() == 0
}

// Replayable reports whether the payload can be encoded more than once. A
// payload holding a [StreamPart] cannot.
func (m *Multipart) Replayable() bool {
	if m == nil {
		return true
	}

	for _, p := range m.parts {
		if _, ok := p.(StreamPart); ok {
			return false
		}
	}

	return true
}

// Boundary returns the delimiter placed between parts.
func (m *Multipart) Boundary() string {
	return m.boundary
}

// ContentType returns the Content-Type header value for the encoded body.
func (m *Multipart) ContentType() string {
	return "multipart/form-data; boundary=" + m.boundary
}

// Clone returns a Multipart with the same boundary and a copy of the part list.
func (m *Multipart) Clone() *Multipart {
	if m == nil {
		return nil
	}

	return &Multipart{
		boundary: m.boundary,
		parts:    slices.Clone(m.parts),
	}
}

// Write encodes every part to w, followed by the closing boundary.
func (m *Multipart) Write(w io.Writer) error {
	mw := mimemultipart.NewWriter(w)
	if err := mw.SetBoundary(m.boundary); err != nil {
		return fmt.Errorf("setting boundary: %w", err)
	}

	for i, p := range m.parts {
		if err := p.Encode(mw); err != nil {
			return fmt.Errorf("writing part[%d] %q: %w", i, p.Name(), err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	return nil
}
