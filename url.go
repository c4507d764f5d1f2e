package volleyer

import (
	"fmt"
	"net/url"
)

// URLOption enables settings for constructing a URL.
// WithQueryStrings adds query strings to the URL.
// WithPort adds a port number to the host.
type URLOption func(options *urlOpts)

type urlOpts struct {
	query url.Values
	port  *int
}

// WithQueryStrings appends each key and value to the query.
func WithQueryStrings(queryKV map[string]string) URLOption {
	return func(opts *urlOpts) {
		if opts.query == nil {
			opts.query = url.Values{}
		}
		for k, v := range queryKV {
			opts.query.Add(k, v)
		}
	}
}

func WithPort(port int) URLOption {
	return func(opts *urlOpts) {
		opts.port = &port
	}
}

// URL creates the string form of a URL for the builder factories.
func URL(scheme, host, path string, opts ...URLOption) string {
	var settings urlOpts
	for _, opt := range opts {
		opt(&settings)
	}

	if settings.port != nil {
		host = fmt.Sprintf("%s:%d", host, *settings.port)
	}

	endpoint := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}
	if len(settings.query) > 0 {
		endpoint.RawQuery = settings.query.Encode()
	}

	return endpoint.String()
}
