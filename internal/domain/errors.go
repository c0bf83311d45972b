package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConflict      = errors.New("conflict")
)

// Scan and ingestion errors. Each wraps one of the generic sentinels above so
// the transport layer can map them without knowing every specific case.
var (
	ErrInvalidInput     = fmt.Errorf("invalid input: %w", ErrValidation)
	ErrDuplicateAccount = fmt.Errorf("account already linked: %w", ErrAlreadyExists)
	ErrUnknownAccount   = fmt.Errorf("unknown account: %w", ErrNotFound)
	ErrCheckerFailure   = errors.New("checker failure")
	ErrAuthFailure      = fmt.Errorf("authentication failed: %w", ErrCheckerFailure)
	ErrRateLimited      = fmt.Errorf("rate limited: %w", ErrCheckerFailure)
	ErrNoChecker        = errors.New("no checker registered for platform")
	ErrWebhookDisabled  = fmt.Errorf("webhooks disabled for platform: %w", ErrNotFound)
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

// Is reports ErrInvalidInput as well, so callers can match on either sentinel.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
