// Package apperrors defines the business-error taxonomy shared by services
// and controllers. Services return these kinds for every rule violation;
// controllers map them to HTTP statuses in one place.
package apperrors

import (
	"errors"
	"fmt"
)

// Base kinds, matched with errors.Is().
var (
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error carries a kind plus a human-readable message and optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target) || (e.Err != nil && errors.Is(e.Err, target))
}

func Conflict(msg string) error          { return &Error{Kind: ErrConflict, Message: msg} }
func InvalidState(msg string) error      { return &Error{Kind: ErrInvalidState, Message: msg} }
func ResourceExhausted(msg string) error { return &Error{Kind: ErrResourceExhausted, Message: msg} }
func Forbidden(msg string) error         { return &Error{Kind: ErrForbidden, Message: msg} }
func NotFound(msg string) error          { return &Error{Kind: ErrNotFound, Message: msg} }
func InvalidInput(msg string) error      { return &Error{Kind: ErrInvalidInput, Message: msg} }

// Wrap attaches a cause while keeping the kind matchable.
func Wrap(kind error, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
