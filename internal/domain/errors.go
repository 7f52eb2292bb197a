// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrQuestionTooLong is returned when a question exceeds the configured
	// maximum number of input characters.
	ErrQuestionTooLong = fmt.Errorf("%w: question is too long", ErrValidation)

	// ErrMissingInput is returned when a query carries neither a question nor
	// a complete sensor reading (parameter and value).
	ErrMissingInput = fmt.Errorf("%w: question or parameter and value are required", ErrValidation)

	// ErrInvalidParameter is returned when a parameter name is not recognized.
	ErrInvalidParameter = fmt.Errorf("%w: unknown parameter", ErrValidation)

	// ErrInvalidLength is returned when the length option is not short or medium.
	ErrInvalidLength = fmt.Errorf("%w: invalid length", ErrValidation)
)

// ValidationError provides details about a field that failed validation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel so errors.Is keeps working.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
