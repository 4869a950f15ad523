// Package apperr defines the error kinds surfaced by catalogue operations.
// Callers match kinds with errors.Is; anything that matches none of them is
// an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error carries the operation name and a human readable message alongside
// its kind.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is reports a match against the kind even when a cause is wrapped.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// Validation returns an ErrValidation-kind error.
func Validation(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound-kind error.
func NotFound(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an ErrConflict-kind error.
func Conflict(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// Message returns the bare message of an *Error, or err.Error() otherwise.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// IsDomain reports whether err belongs to one of the three caller-facing kinds.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}
