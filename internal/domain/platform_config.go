package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PlatformConfig is the closed set of per-platform account settings.
// Each platform has exactly one concrete variant.
type PlatformConfig interface {
	Platform() Platform
	Validate() error
}

// InstagramConfig selects which logged-in session is used to look at the account.
type InstagramConfig struct {
	SessionUsername string `json:"session_username,omitempty"`
}

func (InstagramConfig) Platform() Platform { return PlatformInstagram }

func (c InstagramConfig) Validate() error {
	if c.SessionUsername != "" && strings.ContainsAny(c.SessionUsername, " /\t\n") {
		return NewValidationError("config.session_username", "must be a bare username")
	}
	return nil
}

// SpotifyConfig carries the sp_dc cookie used to mint web-player tokens.
type SpotifyConfig struct {
	SpDC string `json:"sp_dc,omitempty"`
}

func (SpotifyConfig) Platform() Platform { return PlatformSpotify }

func (c SpotifyConfig) Validate() error {
	if c.SpDC != "" && strings.TrimSpace(c.SpDC) != c.SpDC {
		return NewValidationError("config.sp_dc", "must not contain surrounding whitespace")
	}
	return nil
}

// PinterestConfig controls board tracking for a Pinterest account.
type PinterestConfig struct {
	SessionCookie string `json:"session_cookie,omitempty"`
	SkipBoards    bool   `json:"skip_boards,omitempty"`
}

func (PinterestConfig) Platform() Platform { return PlatformPinterest }

func (PinterestConfig) Validate() error { return nil }

// DecodePlatformConfig parses a raw JSON blob into the variant for platform.
// Unknown fields are rejected. An empty or null blob yields the zero variant.
func DecodePlatformConfig(platform Platform, raw []byte) (PlatformConfig, error) {
	trimmed := bytes.TrimSpace(raw)
	empty := len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))

	var cfg PlatformConfig
	switch platform {
	case PlatformInstagram:
		var c InstagramConfig
		if !empty {
			if err := strictUnmarshal(trimmed, &c); err != nil {
				return nil, err
			}
		}
		cfg = c
	case PlatformSpotify:
		var c SpotifyConfig
		if !empty {
			if err := strictUnmarshal(trimmed, &c); err != nil {
				return nil, err
			}
		}
		cfg = c
	case PlatformPinterest:
		var c PinterestConfig
		if !empty {
			if err := strictUnmarshal(trimmed, &c); err != nil {
				return nil, err
			}
		}
		cfg = c
	default:
		return nil, NewValidationError("platform", fmt.Sprintf("unsupported platform %q", platform))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EncodePlatformConfig serializes a config variant for storage. Nil encodes as "{}".
func EncodePlatformConfig(cfg PlatformConfig) ([]byte, error) {
	if cfg == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(cfg)
}

func strictUnmarshal(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return NewValidationError("config", err.Error())
	}
	return nil
}
