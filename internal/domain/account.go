package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is one platform presence linked to an Identity.
// (Platform, Username) is unique across the whole store.
type Account struct {
	ID          uuid.UUID
	IdentityID  uuid.UUID
	Platform    Platform
	Username    string
	Enabled     bool
	Config      PlatformConfig
	LastState   *PlatformState
	LastChecked *time.Time
	ErrorCount  int
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Healthy reports whether the last check succeeded.
func (a *Account) Healthy() bool {
	return a.ErrorCount == 0
}

// RecordSuccess resets the failure streak after a successful check.
func (a *Account) RecordSuccess(at time.Time, state *PlatformState) {
	a.LastState = state
	a.LastChecked = &at
	a.ErrorCount = 0
	a.LastError = nil
}

// RecordFailure extends the failure streak. The stored snapshot is left untouched
// so the next successful check diffs against the last good state.
func (a *Account) RecordFailure(at time.Time, msg string) {
	a.LastChecked = &at
	a.ErrorCount++
	a.LastError = &msg
}
