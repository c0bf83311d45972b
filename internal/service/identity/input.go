package identity

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/validate"
)

// CreateIdentityInput holds the parameters for creating an identity.
type CreateIdentityInput struct {
	Name  string `validate:"required,max=200"`
	Notes string `validate:"max=5000"`
}

func (i CreateIdentityInput) normalize() CreateIdentityInput {
	i.Name = strings.TrimSpace(i.Name)
	i.Notes = strings.TrimSpace(i.Notes)
	return i
}

// Validate checks all fields and collects all errors.
func (i CreateIdentityInput) Validate() error {
	return validate.Struct(i.normalize())
}

// UpdateIdentityInput holds the parameters for updating an identity.
// Nil fields are left unchanged.
type UpdateIdentityInput struct {
	ID    uuid.UUID `validate:"required"`
	Name  *string   `validate:"omitnil,min=1,max=200"`
	Notes *string   `validate:"omitnil,max=5000"`
}

func (i UpdateIdentityInput) normalize() UpdateIdentityInput {
	if i.Name != nil {
		n := strings.TrimSpace(*i.Name)
		i.Name = &n
	}
	if i.Notes != nil {
		n := strings.TrimSpace(*i.Notes)
		i.Notes = &n
	}
	return i
}

// Validate checks all fields and collects all errors.
func (i UpdateIdentityInput) Validate() error {
	i = i.normalize()
	if i.Name == nil && i.Notes == nil {
		return domain.NewValidationError("input", "at least one field must be provided")
	}
	return validate.Struct(i)
}

// LinkAccountInput holds the parameters for linking an account to an identity.
type LinkAccountInput struct {
	IdentityID uuid.UUID `validate:"required"`
	Platform   domain.Platform
	Username   string `validate:"required,max=100"`
	Config     json.RawMessage
}

func (i LinkAccountInput) normalize() LinkAccountInput {
	i.Platform = domain.Platform(strings.ToLower(strings.TrimSpace(string(i.Platform))))
	i.Username = domain.NormalizeUsername(i.Username)
	return i
}

// Validate checks all fields and collects all errors.
func (i LinkAccountInput) Validate() error {
	i = i.normalize()
	var errs []domain.FieldError
	if err := validate.Struct(i); err != nil {
		ve, ok := err.(*domain.ValidationError)
		if !ok {
			return err
		}
		errs = append(errs, ve.Errors...)
	}
	if !i.Platform.IsValid() {
		errs = append(errs, domain.FieldError{Field: "platform", Message: "unsupported platform"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateAccountInput holds the parameters for changing account settings.
// A nil Config leaves the stored config unchanged.
type UpdateAccountInput struct {
	ID      uuid.UUID `validate:"required"`
	Enabled *bool
	Config  json.RawMessage
}

// Validate checks all fields and collects all errors.
func (i UpdateAccountInput) Validate() error {
	if i.Enabled == nil && i.Config == nil {
		return domain.NewValidationError("input", "at least one field must be provided")
	}
	return validate.Struct(i)
}
