package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/adamwoolhether/volleyer/capability"
	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/multipart"
	"github.com/adamwoolhether/volleyer/request"
	"github.com/adamwoolhether/volleyer/transport"
)

// plainRequest implements request.Request but not multipart.Container.
type plainRequest struct {
	method request.Method
	url    string
}

func (r plainRequest) Method() request.Method     { return r.method }
func (r plainRequest) URL() string                { return r.url }
func (r plainRequest) Headers() map[string]string { return nil }
func (r plainRequest) BodyContentType() string    { return "" }
func (r plainRequest) Body() []byte               { return nil }

// flaggedRequest implements multipart.Container and counts Multipart calls.
type flaggedRequest struct {
	plainRequest
	has   bool
	calls *atomic.Int32
}

func (r flaggedRequest) HasMultipart() bool { return r.has }

func (r flaggedRequest) Multipart() *multipart.Multipart {
	r.calls.Add(1)
	return multipart.New(multipart.NewStringPart("k", "v"))
}

type counting struct {
	calls atomic.Int32
}

func (c *counting) Execute(context.Context, request.Request, map[string]string) (*request.NetworkResponse, error) {
	c.calls.Add(1)
	return &request.NetworkResponse{StatusCode: http.StatusOK}, nil
}

func descriptor(t *testing.T, payload request.Payload) *request.Descriptor {
	t.Helper()

	d, err := request.NewDescriptor(request.Draft{Method: request.POST, URL: "http://test", Payload: payload}, request.DefaultRetryPolicy())
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	return d
}

func TestDispatcher_Routing(t *testing.T) {
	tests := map[string]struct {
		req           func(t *testing.T, calls *atomic.Int32) request.Request
		wantMultipart bool
	}{
		"not a container": {
			req: func(*testing.T, *atomic.Int32) request.Request {
				return plainRequest{method: request.GET, url: "http://test"}
			},
		},
		"container without multipart": {
			req: func(_ *testing.T, calls *atomic.Int32) request.Request {
				return flaggedRequest{plainRequest: plainRequest{method: request.POST, url: "http://test"}, calls: calls}
			},
		},
		"empty multipart payload": {
			req: func(t *testing.T, _ *atomic.Int32) request.Request {
				return descriptor(t, request.MultipartPayload(multipart.New()))
			},
		},
		"non-empty multipart payload": {
			req: func(t *testing.T, _ *atomic.Int32) request.Request {
				return descriptor(t, request.MultipartPayload(multipart.New(multipart.NewStringPart("a", "b"))))
			},
			wantMultipart: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var base, mp counting
			d, err := transport.NewDispatcher(&base, &mp)
			if err != nil {
				t.Fatalf("NewDispatcher: %v", err)
			}

			var calls atomic.Int32
			if _, err := d.Execute(t.Context(), tc.req(t, &calls), nil); err != nil {
				t.Fatalf("Execute: %v", err)
			}

			wantBase, wantMP := int32(1), int32(0)
			if tc.wantMultipart {
				wantBase, wantMP = 0, 1
			}
			if base.calls.Load() != wantBase || mp.calls.Load() != wantMP {
				t.Errorf("base=%d multipart=%d, want base=%d multipart=%d", base.calls.Load(), mp.calls.Load(), wantBase, wantMP)
			}
			if calls.Load() != 0 {
				t.Errorf("Multipart() consulted %d times for a request without multipart", calls.Load())
			}
		})
	}
}

func TestNewDispatcher_NilArguments(t *testing.T) {
	var ok counting

	if _, err := transport.NewDispatcher(nil, &ok); !errors.Is(err, assert.ErrNilArgument) {
		t.Errorf("nil base: expected ErrNilArgument, got %v", err)
	}
	if _, err := transport.NewDispatcher(&ok, nil); !errors.Is(err, assert.ErrNilArgument) {
		t.Errorf("nil multipart: expected ErrNilArgument, got %v", err)
	}

	var typedNil *transport.HTTP
	if _, err := transport.NewDispatcher(typedNil, &ok); !errors.Is(err, assert.ErrNilArgument) {
		t.Errorf("typed nil base: expected ErrNilArgument, got %v", err)
	}
}

func TestHTTP_Headers(t *testing.T) {
	var got http.Header
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h, err := transport.NewHTTP(transport.WithUserAgent("volleyer-test"))
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	d, err := request.NewDescriptor(request.Draft{
		Method:  request.PUT,
		URL:     srv.URL,
		Headers: map[string]string{"X-Trace": "from-request", "X-Keep": "kept"},
		Payload: request.ContentPayload("application/json", []byte(`{"a":1}`)),
	}, request.DefaultRetryPolicy())
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}

	resp, err := h.Execute(t.Context(), d, map[string]string{"X-Trace": "from-extra"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if resp.StatusCode != http.StatusAccepted || string(resp.Body) != "ok" || resp.ContentType() != "text/plain" {
		t.Errorf("unexpected response: %d %q %q", resp.StatusCode, resp.Body, resp.ContentType())
	}

	wantHeaders := map[string]string{
		"X-Trace":      "from-extra",
		"X-Keep":       "kept",
		"Content-Type": "application/json",
		"User-Agent":   "volleyer-test",
	}
	gotHeaders := make(map[string]string, len(wantHeaders))
	for k := range wantHeaders {
		gotHeaders[k] = got.Get(k)
	}
	if diff := cmp.Diff(wantHeaders, gotHeaders); diff != "" {
		t.Errorf("request headers mismatch (-want +got):\n%s", diff)
	}
	if gotBody != `{"a":1}` {
		t.Errorf("server received body %q", gotBody)
	}
}

func TestMultipart_WriterSelection(t *testing.T) {
	base, err := transport.NewHTTP()
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	tests := map[string]struct {
		probe capability.Probe
		want  transport.Writer
	}{
		"chunked available": {probe: capability.NewSet(capability.ChunkedUpload), want: transport.Streaming},
		"chunked absent":    {probe: capability.NewSet(), want: transport.Buffered},
		"panicking probe":   {probe: capability.Func(func(string) bool { panic("boom") }), want: transport.Buffered},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := transport.NewMultipart(base, tc.probe)
			if err != nil {
				t.Fatalf("NewMultipart: %v", err)
			}
			if m.Writer() != tc.want {
				t.Errorf("Writer() = %s, want %s", m.Writer(), tc.want)
			}
		})
	}

	if _, err := transport.NewMultipart(nil, capability.NewSet()); !errors.Is(err, assert.ErrNilArgument) {
		t.Errorf("nil base: expected ErrNilArgument, got %v", err)
	}
}

func TestMultipart_Upload(t *testing.T) {
	type received struct {
		fields        map[string]string
		order         []string
		contentLength int64
	}

	for _, writer := range []transport.Writer{transport.Streaming, transport.Buffered} {
		t.Run(string(writer), func(t *testing.T) {
			var got received
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got.contentLength = r.ContentLength
				mr, err := r.MultipartReader()
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				got.fields = map[string]string{}
				for {
					p, err := mr.NextPart()
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						http.Error(w, err.Error(), http.StatusBadRequest)
						return
					}
					b, _ := io.ReadAll(p)
					got.fields[p.FormName()] = string(b)
					got.order = append(got.order, p.FormName())
				}
				w.WriteHeader(http.StatusCreated)
			}))
			defer srv.Close()

			probe := capability.NewSet()
			if writer == transport.Streaming {
				probe = capability.NewSet(capability.ChunkedUpload)
			}
			d, err := transport.NewDefault(transport.WithCapabilities(probe))
			if err != nil {
				t.Fatalf("NewDefault: %v", err)
			}

			mp := multipart.New(
				multipart.NewStringPart("title", "x"),
				multipart.NewStreamPart("doc", "doc.txt", "text/plain", strings.NewReader("streamed")),
				multipart.NewBytesPart("blob", "blob.bin", "application/octet-stream", []byte{1, 2}),
			)
			desc, err := request.NewDescriptor(request.Draft{Method: request.POST, URL: srv.URL, Payload: request.MultipartPayload(mp)}, request.DefaultRetryPolicy())
			if err != nil {
				t.Fatalf("NewDescriptor: %v", err)
			}

			resp, err := d.Execute(t.Context(), desc, nil)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("status = %d, body %q", resp.StatusCode, resp.Body)
			}

			if diff := cmp.Diff([]string{"title", "doc", "blob"}, got.order); diff != "" {
				t.Errorf("part order mismatch (-want +got):\n%s", diff)
			}
			if got.fields["doc"] != "streamed" || got.fields["blob"] != "\x01\x02" {
				t.Errorf("unexpected part contents: %q", got.fields)
			}

			switch writer {
			case transport.Streaming:
				if got.contentLength != -1 {
					t.Errorf("streaming upload sent Content-Length %d", got.contentLength)
				}
			case transport.Buffered:
				if got.contentLength <= 0 {
					t.Errorf("buffered upload sent Content-Length %d", got.contentLength)
				}
			}
		})
	}
}

func TestMultipart_SkipsWriterWithoutMultipart(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	base, err := transport.NewHTTP()
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	m, err := transport.NewMultipart(base, capability.Builtin())
	if err != nil {
		t.Fatalf("NewMultipart: %v", err)
	}

	var calls atomic.Int32
	req := flaggedRequest{plainRequest: plainRequest{method: request.POST, url: srv.URL}, calls: &calls}
	if _, err := m.Execute(t.Context(), req, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if calls.Load() != 0 {
		t.Errorf("Multipart() called %d times", calls.Load())
	}
	if strings.HasPrefix(gotType, "multipart/") {
		t.Errorf("request without multipart sent Content-Type %q", gotType)
	}
}

func TestHTTP_ContentEncoding(t *testing.T) {
	const payload = `{"title":"compressed"}`

	encoders := map[string]func(w io.Writer) io.WriteCloser{
		"gzip": func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		"br":   func(w io.Writer) io.WriteCloser { return brotli.NewWriter(w) },
		"zstd": func(w io.Writer) io.WriteCloser {
			zw, err := zstd.NewWriter(w)
			if err != nil {
				panic(err)
			}
			return zw
		},
	}

	for name, enc := range encoders {
		t.Run(name, func(t *testing.T) {
			var acceptEncoding string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				acceptEncoding = r.Header.Get("Accept-Encoding")
				w.Header().Set("Content-Encoding", name)
				w.Header().Set("Content-Type", "application/json")
				zw := enc(w)
				_, _ = io.WriteString(zw, payload)
				_ = zw.Close()
			}))
			defer srv.Close()

			h, err := transport.NewHTTP()
			if err != nil {
				t.Fatalf("NewHTTP: %v", err)
			}

			resp, err := h.Execute(t.Context(), plainRequest{method: request.GET, url: srv.URL}, nil)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}

			if string(resp.Body) != payload {
				t.Errorf("body = %q, want %q", resp.Body, payload)
			}
			if resp.Header.Get("Content-Encoding") != "" {
				t.Error("Content-Encoding should be cleared after decoding")
			}
			if !strings.Contains(acceptEncoding, name) {
				t.Errorf("Accept-Encoding %q does not advertise %s", acceptEncoding, name)
			}
		})
	}
}

func TestHTTP_UnsupportedContentEncoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "compress")
		_, _ = w.Write([]byte("garbage"))
	}))
	defer srv.Close()

	h, err := transport.NewHTTP()
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	if _, err := h.Execute(t.Context(), plainRequest{method: request.GET, url: srv.URL}, nil); err == nil {
		t.Fatal("expected error for unsupported content encoding")
	}
}

func TestHTTP_MaxBodySize(t *testing.T) {
	tests := map[string]struct {
		body     string
		encoding string
		limit    int64
		wantErr  bool
	}{
		"under limit":      {body: "0123", limit: 8},
		"exactly at limit": {body: "01234567", limit: 8},
		"over limit":       {body: "0123456789abcdef", limit: 8, wantErr: true},

		// compresses to well under 48 bytes but decodes to 256.
		"decoded over limit": {body: strings.Repeat("a", 256), encoding: "gzip", limit: 48, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.encoding == "" {
					_, _ = io.WriteString(w, tc.body)
					return
				}
				w.Header().Set("Content-Encoding", tc.encoding)
				zw := gzip.NewWriter(w)
				_, _ = io.WriteString(zw, tc.body)
				_ = zw.Close()
			}))
			defer srv.Close()

			h, err := transport.NewHTTP(transport.WithMaxBodySize(tc.limit))
			if err != nil {
				t.Fatalf("NewHTTP: %v", err)
			}

			resp, err := h.Execute(t.Context(), plainRequest{method: request.GET, url: srv.URL}, nil)
			if tc.wantErr {
				if !errors.Is(err, transport.ErrBodyTooLarge) {
					t.Fatalf("expected ErrBodyTooLarge, got err=%v resp=%+v", err, resp)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if string(resp.Body) != tc.body {
				t.Errorf("body = %q, want %q", resp.Body, tc.body)
			}
		})
	}
}

func TestNewHTTP_OptionErrors(t *testing.T) {
	tests := map[string]transport.Option{
		"nil client":        transport.WithClient(nil),
		"nil round tripper": transport.WithRoundTripper(nil),
		"negative timeout":  transport.WithTimeout(-1),
		"nil logger":        transport.WithLogger(nil),
		"nil probe":         transport.WithCapabilities(nil),
		"negative max body": transport.WithMaxBodySize(-1),
	}

	for name, opt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := transport.NewHTTP(opt); err == nil {
				t.Error("expected option error")
			}
		})
	}
}
