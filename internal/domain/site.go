package domain

import (
	"regexp"
	"strings"
)

// CheckType selects how a probe interprets a site's response.
type CheckType string

const (
	CheckStatusCode  CheckType = "status_code"
	CheckMessage     CheckType = "message"
	CheckResponseURL CheckType = "response_url"
	CheckDNS         CheckType = "dns"
)

func (c CheckType) String() string { return string(c) }

func (c CheckType) IsValid() bool {
	switch c {
	case CheckStatusCode, CheckMessage, CheckResponseURL, CheckDNS:
		return true
	}
	return false
}

// Site is one Site Catalog entry: an external probe target.
type Site struct {
	Name            string
	URL             string // profile URL template containing {username}
	URLMain         string
	ProbeURL        string // optional; overrides URL for the request only
	CheckType       CheckType
	PresenceStrs    []string
	AbsenceStrs     []string
	Tags            []string
	Disabled        bool
	RequiresCookies bool
	Rank            int // lower is higher priority; 0 means unranked
	UsernameRegex   *regexp.Regexp
}

// ProfileURL renders the public profile URL for username.
func (s Site) ProfileURL(username string) string {
	return strings.ReplaceAll(s.URL, "{username}", username)
}

// RequestURL renders the URL the probe actually fetches.
func (s Site) RequestURL(username string) string {
	if s.ProbeURL != "" {
		return strings.ReplaceAll(s.ProbeURL, "{username}", username)
	}
	return s.ProfileURL(username)
}

// HasAnyTag reports whether the site carries at least one of tags (case-insensitive).
func (s Site) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range s.Tags {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// AcceptsUsername reports whether username passes the site's own format check.
func (s Site) AcceptsUsername(username string) bool {
	if s.UsernameRegex == nil {
		return true
	}
	return s.UsernameRegex.MatchString(username)
}
