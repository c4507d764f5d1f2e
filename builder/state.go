package builder

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrIllegalState is wrapped by every [StateError].
var ErrIllegalState = errors.New("illegal builder state")

// State is the lifecycle position of a builder.
type State int32

const (
	// StateOpen accepts request configuration.
	StateOpen State = iota
	// StateTargetSet has handed off to a response builder.
	StateTargetSet
	// StateExecuting is inside Execute.
	StateExecuting
	// StateDone has executed; nothing else is accepted.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateTargetSet:
		return "target-set"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// StateError reports an operation attempted outside the lifecycle states
// that allow it, or a repeated one-time setter.
type StateError struct {
	Op     string
	State  State
	Reason string
	Err    error
}

func (e *StateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s: %s", e.Err, e.Op, e.Reason)
	}
	return fmt.Sprintf("%v: %s not allowed in state %s", e.Err, e.Op, e.State)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func alreadySet(op string, s State) error {
	return &StateError{Op: op, State: s, Reason: "already set", Err: ErrIllegalState}
}

// lifecycle is the state shared by a request builder and whichever
// response builder it handed off to.
type lifecycle struct {
	state atomic.Int32
}

func (l *lifecycle) current() State {
	return State(l.state.Load())
}

// require fails unless the lifecycle is in want.
func (l *lifecycle) require(op string, want State) error {
	if s := l.current(); s != want {
		return &StateError{Op: op, State: s, Err: ErrIllegalState}
	}
	return nil
}

// advance moves from one state to the next, failing if another state holds.
func (l *lifecycle) advance(op string, from, to State) error {
	if !l.state.CompareAndSwap(int32(from), int32(to)) {
		return &StateError{Op: op, State: l.current(), Err: ErrIllegalState}
	}
	return nil
}

func (l *lifecycle) finish() {
	l.state.Store(int32(StateDone))
}
