package request

import (
	"fmt"
	"time"

	"github.com/adamwoolhether/volleyer/internal/assert"
)

// RetryPolicy controls how many times a request is attempted and how long
// to wait between attempts.
type RetryPolicy struct {
	// Timeout bounds a single attempt. Zero disables the per-attempt bound.
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
	// MaxAttempts includes the first attempt.
	MaxAttempts int `json:"maxAttempts" validate:"gte=1,lte=100"`
	// InitialInterval is the wait before the second attempt.
	InitialInterval time.Duration `json:"initialInterval" validate:"gte=0"`
	// MaxInterval caps the wait between attempts.
	MaxInterval time.Duration `json:"maxInterval" validate:"gtefield=InitialInterval"`
	// Multiplier grows the interval after every failed attempt.
	Multiplier float64 `json:"multiplier" validate:"gte=1"`
}

// DefaultRetryPolicy allows one retry after a short pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:         2500 * time.Millisecond,
		MaxAttempts:     2,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2,
	}
}

// NoRetryPolicy attempts a request exactly once.
func NoRetryPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxAttempts = 1
	return p
}

// Validate reports every rule the policy breaks.
func (p RetryPolicy) Validate() error {
	if err := Validate(p); err != nil {
		return fmt.Errorf("%w: retry policy: %w", assert.ErrInvalidArgument, err)
	}

	return nil
}
