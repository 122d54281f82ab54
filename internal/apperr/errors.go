// Package apperr defines the error taxonomy shared by all layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvariant = errors.New("invariant violation")
	ErrRejected  = errors.New("rejected")
	ErrExternal  = errors.New("external failure")
)

// AppError pairs a sentinel with a message that is safe to show to the user.
type AppError struct {
	Err     error
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found with id %s", resource, id)}
}

// InvariantViolation reports a refused operation that would break a
// collection invariant.
func InvariantViolation(message string) *AppError {
	return &AppError{Err: ErrInvariant, Message: message}
}

// Rejected reports invalid user input.
func Rejected(message string) *AppError {
	return &AppError{Err: ErrRejected, Message: message}
}

// External reports a failure of an external collaborator.
func External(message string, cause error) *AppError {
	return &AppError{Err: ErrExternal, Message: message, Cause: cause}
}

// UserMessage returns the message of an AppError in err's chain, or fallback.
func UserMessage(err error, fallback string) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return fallback
}
