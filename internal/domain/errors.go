package domain

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every rule failure unwraps to exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrNotAvailable = errors.New("not available")
	ErrInvalidState = errors.New("invalid state")
)

// ErrConcurrentModification is returned when a versioned update lost the race.
var ErrConcurrentModification = &Error{kind: ErrInvalidState, msg: "booking was modified concurrently"}

// Error is a rule failure with a caller-facing message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func NotAvailable(format string, args ...any) error {
	return newError(ErrNotAvailable, format, args...)
}

func InvalidState(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

// KindOf returns the sentinel err unwraps to, or nil for infrastructure errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrNotAvailable, ErrInvalidState} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
