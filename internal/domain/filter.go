package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event listing limits.
const (
	DefaultEventLimit = 100
	MaxEventLimit     = 500
)

// EventFilter contains filtering/pagination parameters for event listing.
// Results are always newest first.
type EventFilter struct {
	Platform   *Platform
	IdentityID *uuid.UUID
	AccountID  *uuid.UUID
	Type       *EventType
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

// Normalize clamps Limit and Offset into their allowed ranges.
func (f EventFilter) Normalize() EventFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultEventLimit
	}
	if f.Limit > MaxEventLimit {
		f.Limit = MaxEventLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// EventPage is one page of an event listing.
type EventPage struct {
	Events []Event
	Total  int
	Limit  int
	Offset int
}

// Stats is the dashboard aggregate.
type Stats struct {
	Identities      int
	Accounts        int
	EnabledAccounts int
	FailingAccounts int
	Events24h       int
	EventsByType    map[EventType]int
}

// AccountFilter narrows account listing. Nil fields are ignored.
type AccountFilter struct {
	IdentityID *uuid.UUID
	Platform   *Platform
	Enabled    *bool
}

// AccountCounts holds the dashboard account aggregates. An account is failing
// once its error streak reaches the alert threshold.
type AccountCounts struct {
	Total   int
	Enabled int
	Failing int
}
