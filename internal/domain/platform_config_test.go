package domain

import (
	"errors"
	"testing"
)

func TestDecodePlatformConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform Platform
		raw      string
		want     PlatformConfig
		wantErr  bool
	}{
		{name: "instagram", platform: PlatformInstagram, raw: `{"session_username":"watcher"}`, want: InstagramConfig{SessionUsername: "watcher"}},
		{name: "spotify", platform: PlatformSpotify, raw: `{"sp_dc":"AQC"}`, want: SpotifyConfig{SpDC: "AQC"}},
		{name: "pinterest empty", platform: PlatformPinterest, raw: ``, want: PinterestConfig{}},
		{name: "null blob", platform: PlatformSpotify, raw: `null`, want: SpotifyConfig{}},
		{name: "unknown field", platform: PlatformSpotify, raw: `{"session_username":"x"}`, wantErr: true},
		{name: "bad session username", platform: PlatformInstagram, raw: `{"session_username":"a b"}`, wantErr: true},
		{name: "unknown platform", platform: Platform("myspace"), raw: `{}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodePlatformConfig(tt.platform, []byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("err = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestEncodePlatformConfig_Nil(t *testing.T) {
	t.Parallel()

	raw, err := EncodePlatformConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("EncodePlatformConfig(nil) = %s, want {}", raw)
	}
}
