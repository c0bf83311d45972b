package domain

// Platform identifies the external service an Account lives on.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformPinterest Platform = "pinterest"
	PlatformSpotify   Platform = "spotify"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformInstagram, PlatformPinterest, PlatformSpotify}

func (p Platform) String() string { return string(p) }

func (p Platform) IsValid() bool {
	switch p {
	case PlatformInstagram, PlatformPinterest, PlatformSpotify:
		return true
	}
	return false
}

// Title returns the human-readable platform name used in summaries and notifications.
func (p Platform) Title() string {
	switch p {
	case PlatformInstagram:
		return "Instagram"
	case PlatformPinterest:
		return "Pinterest"
	case PlatformSpotify:
		return "Spotify"
	}
	return string(p)
}

// EventType is the closed set of change kinds the classifier can emit.
type EventType string

const (
	EventFollowerChange  EventType = "follower_change"
	EventFollowingChange EventType = "following_change"
	EventBioChange       EventType = "bio_change"
	EventNewPost         EventType = "new_post"
	EventNameChange      EventType = "name_change"
	EventPrivacyChange   EventType = "privacy_change"
	EventNewPins         EventType = "new_pins"
	EventNewBoard        EventType = "new_board"
	EventBoardUpdate     EventType = "board_update"
	EventNewFollower     EventType = "new_follower"
	EventLostFollower    EventType = "lost_follower"
	EventNewFollowing    EventType = "new_following"
	EventUnfollowed      EventType = "unfollowed"
	EventNewPlaylist     EventType = "new_playlist"
	EventRemovedPlaylist EventType = "removed_playlist"
	EventSessionExpired  EventType = "session_expired"
	EventAuthFailed      EventType = "auth_failed"
)

// EventTypes lists every event type.
var EventTypes = []EventType{
	EventFollowerChange, EventFollowingChange, EventBioChange, EventNewPost,
	EventNameChange, EventPrivacyChange, EventNewPins, EventNewBoard,
	EventBoardUpdate, EventNewFollower, EventLostFollower, EventNewFollowing,
	EventUnfollowed, EventNewPlaylist, EventRemovedPlaylist, EventSessionExpired,
	EventAuthFailed,
}

func (t EventType) String() string { return string(t) }

func (t EventType) IsValid() bool {
	for _, v := range EventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsAuthAlert reports whether the event is a synthetic checker-failure alert.
func (t EventType) IsAuthAlert() bool {
	return t == EventSessionExpired || t == EventAuthFailed
}

// RetentionPolicy decides what happens to Events when their Account is deleted.
type RetentionPolicy string

const (
	// RetentionPurge deletes events together with their account.
	RetentionPurge RetentionPolicy = "purge"
	// RetentionOrphan keeps events as an audit trail with the account reference cleared.
	RetentionOrphan RetentionPolicy = "orphan"
)

func (r RetentionPolicy) String() string { return string(r) }

func (r RetentionPolicy) IsValid() bool {
	return r == RetentionPurge || r == RetentionOrphan
}
