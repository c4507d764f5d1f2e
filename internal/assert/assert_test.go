package assert_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/adamwoolhether/volleyer/internal/assert"
)

type thing struct{}

func TestNotNil(t *testing.T) {
	var nilPtr *thing
	var nilFunc func()
	var nilMap map[string]string

	tests := map[string]struct {
		value   any
		wantErr bool
	}{
		"untyped nil": {value: nil, wantErr: true},
		"typed nil":   {value: nilPtr, wantErr: true},
		"nil func":    {value: nilFunc, wantErr: true},
		"nil map":     {value: nilMap, wantErr: true},
		"pointer":     {value: &thing{}, wantErr: false},
		"struct":      {value: thing{}, wantErr: false},
		"int":         {value: 0, wantErr: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := assert.NotNil(tc.value, "Thing")
			if tc.wantErr != (err != nil) {
				t.Fatalf("NotNil() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, assert.ErrNilArgument) {
				t.Errorf("expected ErrNilArgument, got %v", err)
			}
			var argErr *assert.ArgumentError
			if !errors.As(err, &argErr) || argErr.Name != "Thing" {
				t.Errorf("expected ArgumentError for Thing, got %v", err)
			}
		})
	}
}

func TestNotEmpty(t *testing.T) {
	if err := assert.NotEmpty("x", "URL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := assert.NotEmpty("", "URL")
	if !errors.Is(err, assert.ErrNilArgument) {
		t.Fatalf("expected ErrNilArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "URL") {
		t.Errorf("error %q should name the argument", err)
	}
}
