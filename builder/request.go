// Package builder provides the one-shot builders that configure a request,
// shape its response, and execute it exactly once.
//
// A [RequestBuilder] starts open. Choosing a response target with
// [WithTarget] or [WithBlockingTarget] hands the builder off; Execute moves
// it to done, after which every call fails with [ErrIllegalState].
// Builders are not safe for concurrent mutation.
package builder

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/url"

	"github.com/adamwoolhether/volleyer/config"
	"github.com/adamwoolhether/volleyer/internal/assert"
	"github.com/adamwoolhether/volleyer/multipart"
	"github.com/adamwoolhether/volleyer/parser"
	"github.com/adamwoolhether/volleyer/queue"
	"github.com/adamwoolhether/volleyer/request"
)

// RequestBuilder accumulates the request half of a call.
type RequestBuilder struct {
	lc  lifecycle
	sub queue.Submitter
	cfg *config.Configuration

	method  request.Method
	url     string
	headers map[string]string
	policy  request.RetryPolicy

	kind        request.PayloadKind
	form        url.Values
	contentType string
	content     []byte
	parts       *multipart.Multipart
}

// New returns an open builder. Every argument is required.
func New(sub queue.Submitter, cfg *config.Configuration, rawURL string, method request.Method, policy *request.RetryPolicy) (*RequestBuilder, error) {
	if err := assert.NotNil(sub, "request queue"); err != nil {
		return nil, err
	}
	if err := assert.NotNil(cfg, "configuration"); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(rawURL, "URL"); err != nil {
		return nil, err
	}
	if !method.Valid() {
		return nil, &assert.ArgumentError{Name: "HTTP method", Err: assert.ErrNilArgument}
	}
	if err := assert.NotNil(policy, "retry policy"); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &RequestBuilder{
		sub:     sub,
		cfg:     cfg,
		method:  method,
		url:     rawURL,
		headers: make(map[string]string),
		policy:  *policy,
	}, nil
}

// Method reports the request method.
func (b *RequestBuilder) Method() request.Method { return b.method }

// URL reports the request URL as given to the builder.
func (b *RequestBuilder) URL() string { return b.url }

// State reports the builder's lifecycle position.
func (b *RequestBuilder) State() State { return b.lc.current() }

// AddHeader sets a request header, replacing any previous value for key.
func (b *RequestBuilder) AddHeader(key, value string) (*RequestBuilder, error) {
	if err := b.lc.require("AddHeader", StateOpen); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(key, "header key"); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(value, "header value"); err != nil {
		return nil, err
	}

	b.headers[key] = value
	return b, nil
}

// SetRetryPolicy replaces the retry policy.
func (b *RequestBuilder) SetRetryPolicy(p request.RetryPolicy) (*RequestBuilder, error) {
	if err := b.lc.require("SetRetryPolicy", StateOpen); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b.policy = p
	return b, nil
}

// SetBody sends data as the request body with the given content type.
func (b *RequestBuilder) SetBody(contentType string, data []byte) (*RequestBuilder, error) {
	if err := b.body("SetBody", request.PayloadContent); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(contentType, "content type"); err != nil {
		return nil, err
	}
	if err := assert.NotNil(data, "body"); err != nil {
		return nil, err
	}

	b.kind, b.contentType, b.content = request.PayloadContent, contentType, data
	return b, nil
}

// SetStringBody is SetBody for text.
func (b *RequestBuilder) SetStringBody(contentType, s string) (*RequestBuilder, error) {
	return b.SetBody(contentType, []byte(s))
}

// AddFormField appends a url-encoded form field.
func (b *RequestBuilder) AddFormField(key, value string) (*RequestBuilder, error) {
	if err := b.body("AddFormField", request.PayloadForm); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(key, "form key"); err != nil {
		return nil, err
	}

	if b.form == nil {
		b.form = url.Values{}
	}
	b.kind = request.PayloadForm
	b.form.Add(key, value)
	return b, nil
}

// SetForm replaces the url-encoded form body.
func (b *RequestBuilder) SetForm(form url.Values) (*RequestBuilder, error) {
	if err := b.body("SetForm", request.PayloadForm); err != nil {
		return nil, err
	}
	if err := assert.NotNil(form, "form"); err != nil {
		return nil, err
	}

	b.kind = request.PayloadForm
	b.form = url.Values(maps.Clone(map[string][]string(form)))
	return b, nil
}

// AddStringPart appends a multipart form field.
func (b *RequestBuilder) AddStringPart(name, value string) (*RequestBuilder, error) {
	if err := b.body("AddStringPart", request.PayloadMultipart); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(name, "part name"); err != nil {
		return nil, err
	}
	return b.addPart(multipart.NewStringPart(name, value)), nil
}

// AddFilePart appends a multipart file read from path when the request is
// sent. An empty contentType is inferred from the file extension.
func (b *RequestBuilder) AddFilePart(name, path, contentType string) (*RequestBuilder, error) {
	if err := b.body("AddFilePart", request.PayloadMultipart); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(name, "part name"); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(path, "file path"); err != nil {
		return nil, err
	}
	return b.addPart(multipart.NewFilePart(name, path, contentType)), nil
}

// AddStreamPart appends a multipart file copied from r when the request is
// sent. r is read at most once, so requests carrying it are not retried.
func (b *RequestBuilder) AddStreamPart(name, filename, contentType string, r io.Reader) (*RequestBuilder, error) {
	if err := b.body("AddStreamPart", request.PayloadMultipart); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(name, "part name"); err != nil {
		return nil, err
	}
	if err := assert.NotNil(r, "reader"); err != nil {
		return nil, err
	}
	return b.addPart(multipart.NewStreamPart(name, filename, contentType, r)), nil
}

// AddBytesPart appends an in-memory multipart file.
func (b *RequestBuilder) AddBytesPart(name, filename, contentType string, data []byte) (*RequestBuilder, error) {
	if err := b.body("AddBytesPart", request.PayloadMultipart); err != nil {
		return nil, err
	}
	if err := assert.NotEmpty(name, "part name"); err != nil {
		return nil, err
	}
	return b.addPart(multipart.NewBytesPart(name, filename, contentType, data)), nil
}

func (b *RequestBuilder) addPart(p multipart.Part) *RequestBuilder {
	if b.parts == nil {
		b.parts = multipart.New()
	}
	b.kind = request.PayloadMultipart
	b.parts.Add(p)
	return b
}

// body checks that a body of kind may be set now.
func (b *RequestBuilder) body(op string, kind request.PayloadKind) error {
	if err := b.lc.require(op, StateOpen); err != nil {
		return err
	}
	if !b.method.AllowsBody() {
		return fmt.Errorf("%w: %s request cannot carry a body", assert.ErrInvalidArgument, b.method)
	}
	if b.kind != request.PayloadNone && b.kind != kind {
		return fmt.Errorf("%w: cannot add a %s body to a request with a %s body", assert.ErrInvalidArgument, kind, b.kind)
	}
	return nil
}

// WithListener hands off to a string-target response builder and registers
// fn for the decoded body. The response is read as text whatever its
// content type.
func (b *RequestBuilder) WithListener(fn func(string)) (*ResponseBuilder[string], error) {
	if err := b.lc.require("WithListener", StateOpen); err != nil {
		return nil, err
	}
	if err := assert.NotNil(fn, "listener"); err != nil {
		return nil, err
	}
	rb, err := b.stringTarget("WithListener")
	if err != nil {
		return nil, err
	}
	return rb.WithListener(fn)
}

// WithErrorListener is WithListener for the failure side.
func (b *RequestBuilder) WithErrorListener(fn func(error)) (*ResponseBuilder[string], error) {
	if err := b.lc.require("WithErrorListener", StateOpen); err != nil {
		return nil, err
	}
	if err := assert.NotNil(fn, "error listener"); err != nil {
		return nil, err
	}
	rb, err := b.stringTarget("WithErrorListener")
	if err != nil {
		return nil, err
	}
	return rb.WithErrorListener(fn)
}

func (b *RequestBuilder) stringTarget(op string) (*ResponseBuilder[string], error) {
	if err := b.lc.advance(op, StateOpen, StateTargetSet); err != nil {
		return nil, err
	}
	return &ResponseBuilder[string]{req: b, parser: parser.StringParser{}}, nil
}

// Execute sends the request without decoding the response body.
func (b *RequestBuilder) Execute(ctx context.Context) (*queue.Future[struct{}], bool, error) {
	return execute[struct{}](ctx, b, StateOpen, parser.DiscardParser{}, nil, nil)
}

func (b *RequestBuilder) draft() request.Draft {
	d := request.Draft{
		Method:  b.method,
		URL:     b.url,
		Headers: maps.Clone(b.headers),
	}

	switch b.kind {
	case request.PayloadForm:
		d.Payload = request.FormPayload(b.form)
	case request.PayloadContent:
		d.Payload = request.ContentPayload(b.contentType, b.content)
	case request.PayloadMultipart:
		d.Payload = request.MultipartPayload(b.parts)
	}

	return d
}

// release drops the builder's hold on shared collaborators.
func (b *RequestBuilder) release() {
	b.sub = nil
	b.lc.finish()
}
