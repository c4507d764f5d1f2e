package request

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP request method. The zero value is not a valid method.
type Method int

const (
	MethodUnknown Method = iota
	GET
	POST
	PUT
	PATCH
	DELETE
	HEAD
	OPTIONS
	TRACE
)

var methodNames = map[Method]string{
	GET:     http.MethodGet,
	POST:    http.MethodPost,
	PUT:     http.MethodPut,
	PATCH:   http.MethodPatch,
	DELETE:  http.MethodDelete,
	HEAD:    http.MethodHead,
	OPTIONS: http.MethodOptions,
	TRACE:   http.MethodTrace,
}

// String returns the wire name of m, or "UNKNOWN".
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}

	return "UNKNOWN"
}

// Valid reports whether m is one of the declared methods.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// AllowsBody reports whether a payload may accompany m.
func (m Method) AllowsBody() bool {
	switch m {
	case POST, PUT, PATCH, DELETE:
		return true
	default:
		return false
	}
}

// ParseMethod maps a case-insensitive method name to a Method.
func ParseMethod(s string) (Method, error) {
	upper := strings.ToUpper(s)
	for m, name := range methodNames {
		if name == upper {
			return m, nil
		}
	}

	return MethodUnknown, fmt.Errorf("unknown http method[%s]", s)
}
