package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/multipart"
	"github.com/adamwoolhether/volleyer/request"
)

// Writer names the multipart body writer a [Multipart] transport selected.
type Writer string

const (
	// Streaming pipes parts to the connection as they are encoded and sends
	// the body chunked.
	Streaming Writer = "streaming"
	// Buffered encodes the whole body first so it can send Content-Length.
	Buffered Writer = "buffered"
)

type bodyWriter interface {
	encode(m *multipart.Multipart) (body io.Reader, length int64, err error)
}

type streamingWriter struct{}

func (streamingWriter) encode(m *multipart.Multipart) (io.Reader, int64, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(m.Write(pw))
	}()

	return pr, -1, nil
}

type bufferedWriter struct{}

func (bufferedWriter) encode(m *multipart.Multipart) (io.Reader, int64, error) {
	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		return nil, 0, fmt.Errorf("encoding multipart body: %w", err)
	}

	return &buf, int64(buf.Len()), nil
}

// Multipart sends multipart/form-data requests. Requests without a
// multipart payload are sent by its base transport unchanged.
type Multipart struct {
	base   *HTTP
	writer bodyWriter
	mode   Writer
}

var _ Transport = (*Multipart)(nil)

// NewMultipart returns a multipart transport sending through base. The body
// writer is picked once from probe: [Streaming] when chunked uploads are
// available, [Buffered] otherwise.
func NewMultipart(base *HTTP, probe capability.Probe) (*Multipart, error) {
	if err := assert.NotNil(base, "base transport"); err != nil {
		return nil, err
	}
	if err := assert.NotNil(probe, "probe"); err != nil {
		return nil, err
	}

	m := &Multipart{base: base, writer: bufferedWriter{}, mode: Buffered}
	if capability.Safe(probe).IsAvailable(capability.ChunkedUpload) {
		m.writer, m.mode = streamingWriter{}, Streaming
	}

	return m, nil
}

// Writer reports the body writer chosen at construction.
func (m *Multipart) Writer() Writer { return m.mode }

func (m *Multipart) Execute(ctx context.Context, req request.Request, extra map[string]string) (*request.NetworkResponse, error) {
	c, ok := req.(multipart.Container)
	if !ok || !c.HasMultipart() {
		return m.base.Execute(ctx, req, extra)
	}

	mp := c.Multipart()
	body, length, err := m.writer.encode(mp)
	if err != nil {
		return nil, err
	}

	return m.base.send(ctx, req, extra, body, mp.ContentType(), length)
}
