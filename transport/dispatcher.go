package transport

import (
	"context"

	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/multipart"
	"github.com/adamwoolhether/volleyer/request"
)

// Dispatcher routes requests carrying a multipart payload to one transport
// and everything else to another.
type Dispatcher struct {
	base      Transport
	multipart Transport
}

var _ Transport = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher over base and mp, both required.
func NewDispatcher(base, mp Transport) (*Dispatcher, error) {
	if err := assert.NotNil(base, "base transport"); err != nil {
		return nil, err
	}
	if err := assert.NotNil(mp, "multipart transport"); err != nil {
		return nil, err
	}

	return &Dispatcher{base: base, multipart: mp}, nil
}

func (d *Dispatcher) Execute(ctx context.Context, req request.Request, extra map[string]string) (*request.NetworkResponse, error) {
	return d.route(req).Execute(ctx, req, extra)
}

func (d *Dispatcher) route(req request.Request) Transport {
	switch r := req.(type) {
	case multipart.Container:
		if hasMultipart(r) {
			return d.multipart
		}
		return d.base
	default:
		return d.base
	}
}

// hasMultipart treats a panicking capability check as "no multipart".
func hasMultipart(c multipart.Container) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	return c.HasMultipart()
}
