package dimmer

import (
	"errors"
	"fmt"
)

// Kind classifies controller errors.
type Kind string

const (
	// KindOutOfRange means an input was clamped. Recovered locally.
	KindOutOfRange Kind = "out_of_range"
	// KindBackendUnavailable means the display backend rejected a call.
	// The state is left unchanged.
	KindBackendUnavailable Kind = "backend_unavailable"
	// KindPersistence means the settings store failed. Logged only.
	KindPersistence Kind = "persistence"
)

var (
	ErrOutOfRange         = errors.New("value out of range")
	ErrBackendUnavailable = errors.New("display backend unavailable")
	ErrPersistence        = errors.New("persistence failure")
)

// Error is a classified dimmer error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind, so callers can write
// errors.Is(err, dimmer.ErrBackendUnavailable).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrOutOfRange:
		return e.Kind == KindOutOfRange
	case ErrBackendUnavailable:
		return e.Kind == KindBackendUnavailable
	case ErrPersistence:
		return e.Kind == KindPersistence
	}
	return false
}

func backendError(op string, err error) error {
	return &Error{Kind: KindBackendUnavailable, Op: op, Err: err}
}

// PersistenceError wraps a store failure.
func PersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// KindOf returns the kind of err, or "" when err is not a dimmer error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
