// Package assert holds the argument checks shared by every constructor
// and mutator in the module.
package assert

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNilArgument is the sentinel wrapped by [ArgumentError].
	ErrNilArgument = errors.New("nil argument")
	// ErrInvalidArgument marks an argument that was present but failed validation.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ArgumentError reports a required argument that was absent.
type ArgumentError struct {
	Name string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%v: %s must not be nil", e.Err, e.Name)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// NotNil returns an [ArgumentError] when v is nil, including typed nil
// pointers, maps, slices, funcs and channels stored in an interface.
func NotNil(v any, name string) error {
	if isNil(v) {
		return &ArgumentError{Name: name, Err: ErrNilArgument}
	}

	return nil
}

// NotEmpty returns an [ArgumentError] when s is empty.
func NotEmpty(s, name string) error {
	if s == "" {
		return &ArgumentError{Name: name, Err: ErrNilArgument}
	}

	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
