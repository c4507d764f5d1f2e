package multipart

import (
	"errors"
	"fmt"
	"io"
	"mime"
	mimemultipart "mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

const defaultContentType = "application/octet-stream"

// ErrStreamConsumed is returned when a [StreamPart] is encoded a second time.
var ErrStreamConsumed = errors.New("stream part already consumed")

// Part is a single named section of a multipart body.
type Part interface {
	Name() string
	Encode(w *mimemultipart.Writer) error
}

// StringPart is a plain form field.
type StringPart struct {
	name  string
	value string
}

// NewStringPart returns a form field part.
func NewStringPart(name, value string) StringPart {
	return StringPart{name: name, value: value}
}

func (p StringPart) Name() string  { return p.name }
func (p StringPart) Value() string { return p.value }

func (p StringPart) Encode(w *mimemultipart.Writer) error {
	return w.WriteField(p.name, p.value)
}

// FilePart uploads the file at path. The file is opened only when the
// part is encoded and its content is streamed.
type FilePart struct {
	name        string
	path        string
	contentType string
}

// NewFilePart returns a part for the file at path. An empty contentType is
// derived from the file extension, falling back to application/octet-stream.
func NewFilePart(name, path, contentType string) FilePart {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	return FilePart{name: name, path: path, contentType: contentType}
}

func (p FilePart) Name() string        { return p.name }
func (p FilePart) Path() string        { return p.path }
func (p FilePart) ContentType() string { return p.contentType }

func (p FilePart) Encode(w *mimemultipart.Writer) error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	dst, err := createFilePart(w, p.name, filepath.Base(p.path), p.contentType)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}

	return nil
}

// StreamPart uploads whatever r yields. The reader is consumed once, and
// copies of the part share that single use.
type StreamPart struct {
	name        string
	filename    string
	contentType string
	r           io.Reader
	used        *atomic.Bool
}

// NewStreamPart returns a part that copies r at encode time.
func NewStreamPart(name, filename, contentType string, r io.Reader) StreamPart {
	if contentType == "" {
		contentType = defaultContentType
	}

	return StreamPart{name: name, filename: filename, contentType: contentType, r: r, used: new(atomic.Bool)}
}

func (p StreamPart) Name() string        { return p.name }
func (p StreamPart) ContentType() string { return p.contentType }

func (p StreamPart) Encode(w *mimemultipart.Writer) error {
	if p.used == nil || p.used.Swap(true) {
		return ErrStreamConsumed
	}

	dst, err := createFilePart(w, p.name, p.filename, p.contentType)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, p.r); err != nil {
		return fmt.Errorf("copying stream: %w", err)
	}

	return nil
}

// BytesPart uploads an in-memory blob as a file.
type BytesPart struct {
	name        string
	filename    string
	contentType string
	data        []byte
}

// NewBytesPart returns a file part backed by data.
func NewBytesPart(name, filename, contentType string, data []byte) BytesPart {
	if contentType == "" {
		contentType = defaultContentType
	}

	return BytesPart{name: name, filename: filename, contentType: contentType, data: data}
}

func (p BytesPart) Name() string        { return p.name }
func (p BytesPart) ContentType() string { return p.contentType }

func (p BytesPart) Encode(w *mimemultipart.Writer) error {
	dst, err := createFilePart(w, p.name, p.filename, p.contentType)
	if err != nil {
		return err
	}

	_, err = dst.Write(p.data)
	return err
}

func createFilePart(w *mimemultipart.Writer, name, filename, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("creating part: %w", err)
	}

	return part, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
