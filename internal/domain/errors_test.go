package domain

import (
	"errors"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("username", "required")

	if got := err.Error(); got != "validation: username: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("errors.Is(err, ErrInvalidInput) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "username", Message: "required"},
		{Field: "timeout", Message: "must not be negative"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestTaxonomy_WrapsGenericSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"invalid input", ErrInvalidInput, ErrValidation},
		{"duplicate account", ErrDuplicateAccount, ErrAlreadyExists},
		{"unknown account", ErrUnknownAccount, ErrNotFound},
		{"auth failure", ErrAuthFailure, ErrCheckerFailure},
		{"rate limited", ErrRateLimited, ErrCheckerFailure},
		{"webhook disabled", ErrWebhookDisabled, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
			}
		})
	}
}

func TestTaxonomy_AuthIsNotRateLimit(t *testing.T) {
	t.Parallel()

	if errors.Is(ErrAuthFailure, ErrRateLimited) {
		t.Fatal("auth failure must not match rate limit")
	}
}
