package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when input or an entity fails validation.
	// Concrete failures are reported as *ValidationError, which wraps it.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or empty.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUpstreamGeneration wraps every failure of the generative collaborator
	// (empty output, quota, blocked content, exhausted retries).
	ErrUpstreamGeneration = errors.New("upstream generation failed")

	// ErrUnparseableOutput is returned when generative output contains no
	// well-formed list of cards.
	ErrUnparseableOutput = errors.New("unparseable generation output")

	// ErrInvalidStatusTransition is returned when a session status change
	// would move backwards or leave a terminal state.
	ErrInvalidStatusTransition = errors.New("invalid session status transition")

	// ErrUnauthorized is returned when an operation is not permitted for the owner.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationCode identifies a specific validation failure.
type ValidationCode string

// Validation codes surfaced to callers.
const (
	CodeContentTooShort    ValidationCode = "ContentTooShort"
	CodeInvalidContentType ValidationCode = "InvalidContentType"
	CodeMissingContent     ValidationCode = "MissingContent"
	CodeInvalidOptions     ValidationCode = "InvalidOptions"
)

// ValidationError describes why input was rejected.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(code ValidationCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Code, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsValidationCode reports whether err is a ValidationError with the given code.
func IsValidationCode(err error, code ValidationCode) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}
