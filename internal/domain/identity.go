package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a tracked person or persona grouping one or more Accounts.
type Identity struct {
	ID        uuid.UUID
	Name      string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdentitySummary is an Identity enriched for feed previews.
type IdentitySummary struct {
	Identity
	AccountCount int
	LatestEvent  *Event
}
