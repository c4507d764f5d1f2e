package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const acceptEncoding = "gzip, br, zstd"

// ErrBodyTooLarge is returned when a response body, before or after content
// decoding, exceeds the configured maximum size.
var ErrBodyTooLarge = errors.New("response body too large")

// decodeContent reads the body and undoes any Content-Encoding. On success
// the encoding headers are removed, since they no longer describe the bytes.
// A positive limit bounds both the encoded and the decoded size.
func decodeContent(h http.Header, r io.Reader, limit int64) ([]byte, error) {
	raw, err := readLimited(r, limit)
	if err != nil {
		return nil, err
	}

	enc := strings.ToLower(strings.TrimSpace(h.Get("Content-Encoding")))
	if enc == "" || enc == "identity" || len(raw) == 0 {
		return raw, nil
	}

	var out []byte
	switch enc {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		if out, err = readLimited(zr, limit); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
	case "br":
		if out, err = readLimited(brotli.NewReader(bytes.NewReader(raw)), limit); err != nil {
			return nil, fmt.Errorf("brotli: %w", err)
		}
	case "zstd":
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		if out, err = readLimited(zr, limit); err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", enc)
	}

	h.Del("Content-Encoding")
	h.Del("Content-Length")

	return out, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, limit)
	}

	return data, nil
}
