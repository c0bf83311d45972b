package domain

// PlatformState is the observable state of an account at one point in time.
// Nil fields were not observed and never produce events. For the list fields a
// nil slice means "not exposed by the platform" while an empty slice means
// "exposed and empty".
type PlatformState struct {
	DisplayName    *string  `json:"display_name,omitempty"`
	Bio            *string  `json:"bio,omitempty"`
	IsPrivate      *bool    `json:"is_private,omitempty"`
	Followers      *int     `json:"followers,omitempty"`
	Following      *int     `json:"following,omitempty"`
	Posts          *int     `json:"posts,omitempty"`
	FollowerNames  []string `json:"follower_names"`
	FollowingNames []string `json:"following_names"`
	Playlists      []string `json:"playlists"`
	Boards         []Board  `json:"boards"`
}

// Board is a Pinterest board as seen in one snapshot. URL identifies the board.
type Board struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PinCount    int    `json:"pin_count"`
}

// Merge overlays the observed fields of s onto prev and returns the result.
// Neither input is modified. A nil prev returns a copy of s.
func (s *PlatformState) Merge(prev *PlatformState) *PlatformState {
	if s == nil {
		if prev == nil {
			return nil
		}
		out := *prev
		return &out
	}
	out := *s
	if prev == nil {
		return &out
	}
	if out.DisplayName == nil {
		out.DisplayName = prev.DisplayName
	}
	if out.Bio == nil {
		out.Bio = prev.Bio
	}
	if out.IsPrivate == nil {
		out.IsPrivate = prev.IsPrivate
	}
	if out.Followers == nil {
		out.Followers = prev.Followers
	}
	if out.Following == nil {
		out.Following = prev.Following
	}
	if out.Posts == nil {
		out.Posts = prev.Posts
	}
	if out.FollowerNames == nil {
		out.FollowerNames = prev.FollowerNames
	}
	if out.FollowingNames == nil {
		out.FollowingNames = prev.FollowingNames
	}
	if out.Playlists == nil {
		out.Playlists = prev.Playlists
	}
	if out.Boards == nil {
		out.Boards = prev.Boards
	}
	return &out
}
