package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/request"
)

// HTTP is the base transport, backed by an [http.Client].
type HTTP struct {
	client         *http.Client
	logger         *slog.Logger
	probe          capability.Probe
	acceptEncoding string
	maxBodySize    int64
}

var _ Transport = (*HTTP)(nil)

// NewHTTP builds the base transport.
func NewHTTP(optFns ...Option) (*HTTP, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying transport option: %w", err)
		}
	}

	h := &HTTP{
		client:      &http.Client{},
		logger:      slog.Default(),
		probe:       capability.Builtin(),
		maxBodySize: opts.maxBodySize,
	}

	if opts.client != nil {
		cpy := *opts.client
		h.client = &cpy
	}

	if opts.logger != nil {
		h.logger = opts.logger
	}

	if opts.probe != nil {
		h.probe = capability.Safe(opts.probe)
	}

	if opts.timeout != nil {
		h.client.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		h.client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var rt http.RoundTripper
	switch {
	case opts.rt != nil:
		rt = opts.rt
	case h.client.Transport != nil:
		rt = h.client.Transport
	default:
		rt = http.DefaultTransport
	}
	if opts.userAgent != "" {
		rt = userAgent{value: opts.userAgent, base: rt}
	}
	h.client.Transport = rt

	if h.probe.IsAvailable(capability.ContentEncoding) {
		h.acceptEncoding = acceptEncoding
	}

	return h, nil
}

// Execute sends req with its encoded body.
func (h *HTTP) Execute(ctx context.Context, req request.Request, extra map[string]string) (*request.NetworkResponse, error) {
	var body io.Reader
	length := int64(0)
	if b := req.Body(); b != nil {
		body = bytes.NewReader(b)
		length = int64(len(b))
	}

	return h.send(ctx, req, extra, body, req.BodyContentType(), length)
}

// send performs the transfer with an already encoded body. A negative
// length sends the body chunked.
func (h *HTTP) send(ctx context.Context, req request.Request, extra map[string]string, body io.Reader, contentType string, length int64) (*request.NetworkResponse, error) {
	hreq, err := http.NewRequestWithContext(ctx, req.Method().String(), req.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}
	if body != nil {
		hreq.ContentLength = length
		if contentType != "" {
			hreq.Header.Set("Content-Type", contentType)
		}
	}

	if h.acceptEncoding != "" {
		hreq.Header.Set("Accept-Encoding", h.acceptEncoding)
	}
	for k, v := range req.Headers() {
		hreq.Header.Set(k, v)
	}
	for k, v := range extra {
		hreq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := h.client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("exec http do: %w", err)
	}
	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			h.logger.Error("failed to discard unused body", "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			h.logger.Error("failed to close response body", "error", err)
		}
	}()

	data, err := decodeContent(resp.Header, resp.Body, h.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &request.NetworkResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
		Elapsed:    time.Since(start),
	}, nil
}
