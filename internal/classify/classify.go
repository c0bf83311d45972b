// Package classify implements the Event Classifier: a pure diff of two
// platform state snapshots into typed change events.
//
// Classify never assigns ids or timestamps; the caller stamps events before
// persisting them. Comparing a snapshot with itself yields no events, which is
// what makes webhook redelivery a no-op.
package classify

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Subject identifies the account the snapshots belong to.
type Subject struct {
	AccountID  uuid.UUID
	IdentityID uuid.UUID
	Platform   domain.Platform
	Username   string
}

// Classify diffs prev against curr. A nil prev is a first observation and
// produces no events. Fields missing from either snapshot are not compared,
// so a platform that only exposes counts never yields membership events.
func Classify(sub Subject, prev, curr *domain.PlatformState) []domain.Event {
	if prev == nil || curr == nil {
		return nil
	}

	var events []domain.Event
	add := func(t domain.EventType, summary string, payload any) {
		events = append(events, sub.event(t, summary, payload))
	}

	if changed(prev.DisplayName, curr.DisplayName) {
		add(domain.EventNameChange, nameSummary(*prev.DisplayName, *curr.DisplayName),
			domain.TextChange{Old: *prev.DisplayName, New: *curr.DisplayName})
	}
	if changed(prev.Bio, curr.Bio) {
		add(domain.EventBioChange, "Bio updated",
			domain.BioChange{OldBio: *prev.Bio, NewBio: *curr.Bio})
	}
	if changed(prev.IsPrivate, curr.IsPrivate) {
		add(domain.EventPrivacyChange, privacySummary(*curr.IsPrivate),
			domain.PrivacyChange{Old: *prev.IsPrivate, New: *curr.IsPrivate})
	}
	if changed(prev.Followers, curr.Followers) {
		c := domain.CountChange{Old: *prev.Followers, New: *curr.Followers}
		add(domain.EventFollowerChange, countSummary("Followers", c), c)
	}
	if changed(prev.Following, curr.Following) {
		c := domain.CountChange{Old: *prev.Following, New: *curr.Following}
		add(domain.EventFollowingChange, countSummary("Following", c), c)
	}
	if changed(prev.Posts, curr.Posts) && *curr.Posts > *prev.Posts {
		c := domain.CountChange{Old: *prev.Posts, New: *curr.Posts}
		add(domain.EventNewPost, postsSummary(c), c)
	}

	membership := []struct {
		prev, curr     []string
		added, removed domain.EventType
		addedLabel     string
		removedLabel   string
	}{
		{prev.FollowerNames, curr.FollowerNames, domain.EventNewFollower, domain.EventLostFollower, "New follower", "Lost follower"},
		{prev.FollowingNames, curr.FollowingNames, domain.EventNewFollowing, domain.EventUnfollowed, "Now following", "Unfollowed"},
		{prev.Playlists, curr.Playlists, domain.EventNewPlaylist, domain.EventRemovedPlaylist, "New playlist", "Removed playlist"},
	}
	for _, m := range membership {
		if m.prev == nil || m.curr == nil {
			continue
		}
		if names := difference(m.curr, m.prev); len(names) > 0 {
			add(m.added, listSummary(m.addedLabel, names), domain.MembershipChange{Names: names})
		}
		if names := difference(m.prev, m.curr); len(names) > 0 {
			add(m.removed, listSummary(m.removedLabel, names), domain.MembershipChange{Names: names})
		}
	}

	if prev.Boards != nil && curr.Boards != nil {
		events = append(events, sub.boardEvents(prev.Boards, curr.Boards)...)
	}

	return events
}

func (sub Subject) boardEvents(prev, curr []domain.Board) []domain.Event {
	before := make(map[string]domain.Board, len(prev))
	for _, b := range prev {
		before[boardKey(b)] = b
	}

	var events []domain.Event
	for _, b := range curr {
		old, ok := before[boardKey(b)]
		if !ok {
			events = append(events, sub.event(domain.EventNewBoard,
				`New board "`+b.Name+`"`,
				domain.NewBoard{BoardName: b.Name, BoardURL: b.URL, PinCount: b.PinCount}))
			continue
		}
		if b.PinCount > old.PinCount {
			c := domain.PinsChange{BoardName: b.Name, BoardURL: b.URL, OldCount: old.PinCount, NewCount: b.PinCount}
			events = append(events, sub.event(domain.EventNewPins, pinsSummary(c), c))
		}
		if b.Description != old.Description {
			events = append(events, sub.event(domain.EventBoardUpdate,
				`Board "`+b.Name+`" updated`,
				domain.BoardUpdate{BoardName: b.Name, BoardURL: b.URL, OldDescription: old.Description, NewDescription: b.Description}))
		}
	}
	return events
}

// AuthAlert builds the synthetic event raised when a check fails for an
// authentication reason.
func AuthAlert(sub Subject, t domain.EventType, errText string) domain.Event {
	summary := sub.Platform.Title() + " authentication failed"
	if t == domain.EventSessionExpired {
		summary = sub.Platform.Title() + " session expired"
	}
	return sub.event(t, summary, domain.AuthAlert{Error: errText})
}

func (sub Subject) event(t domain.EventType, summary string, payload any) domain.Event {
	accountID, identityID := sub.AccountID, sub.IdentityID
	// Payload types are plain structs; Marshal cannot fail on them.
	raw, _ := json.Marshal(payload)
	return domain.Event{
		AccountID:  &accountID,
		IdentityID: &identityID,
		Platform:   sub.Platform,
		Username:   sub.Username,
		Type:       t,
		Summary:    summary,
		Payload:    raw,
	}
}

func changed[T comparable](prev, curr *T) bool {
	return prev != nil && curr != nil && *prev != *curr
}

// difference returns the entries of a missing from b, in a's order.
func difference(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, s := range b {
		in[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := in[s]; !ok {
			out = append(out, s)
			in[s] = struct{}{}
		}
	}
	return out
}

func boardKey(b domain.Board) string {
	if b.URL != "" {
		return b.URL
	}
	return "name:" + b.Name
}
