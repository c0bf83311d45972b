package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of a detected change on an Account.
// AccountID and IdentityID are nil once the owning account has been deleted
// under the orphan retention policy; Platform and Username are kept for display.
type Event struct {
	ID         uuid.UUID
	AccountID  *uuid.UUID
	IdentityID *uuid.UUID
	Platform   Platform
	Username   string
	Type       EventType
	Summary    string
	Payload    json.RawMessage
	EventTime  *time.Time
	CreatedAt  time.Time
}

// Payload shapes, one per event type family.

// CountChange is the payload of follower_change, following_change and new_post.
type CountChange struct {
	Old int `json:"old"`
	New int `json:"new"`
}

// Delta returns New - Old.
func (c CountChange) Delta() int { return c.New - c.Old }

// TextChange is the payload of name_change.
type TextChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// BioChange is the payload of bio_change.
type BioChange struct {
	OldBio string `json:"old_bio"`
	NewBio string `json:"new_bio"`
}

// PrivacyChange is the payload of privacy_change.
type PrivacyChange struct {
	Old bool `json:"old"`
	New bool `json:"new"`
}

// MembershipChange is the payload of new_follower, lost_follower, new_following,
// unfollowed, new_playlist and removed_playlist.
type MembershipChange struct {
	Names []string `json:"names"`
}

// PinsChange is the payload of new_pins.
type PinsChange struct {
	BoardName string `json:"board_name"`
	BoardURL  string `json:"board_url"`
	OldCount  int    `json:"old_count"`
	NewCount  int    `json:"new_count"`
}

// NewBoard is the payload of new_board.
type NewBoard struct {
	BoardName string `json:"board_name"`
	BoardURL  string `json:"board_url"`
	PinCount  int    `json:"pin_count"`
}

// BoardUpdate is the payload of board_update.
type BoardUpdate struct {
	BoardName      string `json:"board_name"`
	BoardURL       string `json:"board_url"`
	OldDescription string `json:"old_description"`
	NewDescription string `json:"new_description"`
}

// AuthAlert is the payload of session_expired and auth_failed.
type AuthAlert struct {
	Error string `json:"error"`
}
