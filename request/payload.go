package request

import (
	"net/url"
	"slices"

	"github.com/adamwoolhether/volleyer/multipart"
)

const formContentType = "application/x-www-form-urlencoded; charset=UTF-8"

// PayloadKind tags which body variant a [Payload] holds.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadForm
	PayloadContent
	PayloadMultipart
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadNone:
		return "none"
	case PayloadForm:
		return "form"
	case PayloadContent:
		return "content"
	case PayloadMultipart:
		return "multipart"
	default:
		return "unknown"
	}
}

// Payload is the body of a request: nothing, a url-encoded form, a single
// content blob, or a multipart collection. The zero value is PayloadNone.
type Payload struct {
	kind        PayloadKind
	form        url.Values
	contentType string
	data        []byte
	multipart   *multipart.Multipart
}

// FormPayload returns a url-encoded form body.
func FormPayload(form url.Values) Payload {
	return Payload{kind: PayloadForm, form: form}
}

// ContentPayload returns a raw body with the given content type.
func ContentPayload(contentType string, data []byte) Payload {
	return Payload{kind: PayloadContent, contentType: contentType, data: data}
}

// MultipartPayload returns a multipart body.
func MultipartPayload(m *multipart.Multipart) Payload {
	return Payload{kind: PayloadMultipart, multipart: m}
}

func (p Payload) Kind() PayloadKind { return p.kind }

// Form returns a copy of the form values of a PayloadForm.
func (p Payload) Form() url.Values { return cloneForm(p.form) }

// Multipart returns a copy of the parts of a PayloadMultipart.
func (p Payload) Multipart() *multipart.Multipart { return p.multipart.Clone() }

// ContentType returns the Content-Type the encoded body is sent with.
func (p Payload) ContentType() string {
	switch p.kind {
	case PayloadForm:
		return formContentType
	case PayloadContent:
		return p.contentType
	case PayloadMultipart:
		return p.multipart.ContentType()
	default:
		return ""
	}
}

// Bytes returns the encoded body for form and content payloads. Multipart
// payloads are streamed by the transport and yield nil here.
func (p Payload) Bytes() []byte {
	switch p.kind {
	case PayloadForm:
		return []byte(p.form.Encode())
	case PayloadContent:
		return slices.Clone(p.data)
	default:
		return nil
	}
}

func (p Payload) clone() Payload {
	cpy := p
	switch p.kind {
	case PayloadForm:
		cpy.form = cloneForm(p.form)
	case PayloadContent:
		cpy.data = slices.Clone(p.data)
	case PayloadMultipart:
		cpy.multipart = p.multipart.Clone()
	}

	return cpy
}

func cloneForm(form url.Values) url.Values {
	if form == nil {
		return nil
	}

	cpy := make(url.Values, len(form))
	for k, v := range form {
		cpy[k] = slices.Clone(v)
	}
	return cpy
}
