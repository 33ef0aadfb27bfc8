package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType classifies domain failures so handlers can map them to
// responses without string matching. Anything outside this taxonomy is
// an infrastructure failure and propagates opaquely.
type ErrorType int

const (
	TypeValidation ErrorType = iota
	TypeFutureDate
	TypeChallengePeriod
	TypeTransientConflict
	TypeNotFound
)

type AppError struct {
	Type     ErrorType
	Message  string
	Internal error
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError covers malformed dates and out-of-range counts.
// Recoverable by the caller correcting input, never retried.
func NewValidationError(message string) *AppError {
	return &AppError{Type: TypeValidation, Message: message}
}

// NewFutureDateError rejects dates more than one day ahead of now.
func NewFutureDateError(message string) *AppError {
	return &AppError{Type: TypeFutureDate, Message: message}
}

// NewChallengePeriodError rejects dates before the active challenge
// started.
func NewChallengePeriodError(message string) *AppError {
	return &AppError{Type: TypeChallengePeriod, Message: message}
}

// NewTransientConflict surfaces same-key write contention after the
// internal retry budget is exhausted.
func NewTransientConflict(message string, err error) *AppError {
	return &AppError{Type: TypeTransientConflict, Message: message, Internal: err}
}

func NewNotFound(message string) *AppError {
	return &AppError{Type: TypeNotFound, Message: message}
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}
