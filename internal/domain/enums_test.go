package domain

import "testing"

func TestPlatform_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		platform Platform
		want     bool
	}{
		{PlatformInstagram, true},
		{PlatformPinterest, true},
		{PlatformSpotify, true},
		{Platform("myspace"), false},
		{Platform(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			t.Parallel()
			if got := tt.platform.IsValid(); got != tt.want {
				t.Errorf("Platform(%q).IsValid() = %v, want %v", tt.platform, got, tt.want)
			}
		})
	}
}

func TestEventType_ClosedSet(t *testing.T) {
	t.Parallel()

	if len(EventTypes) != 17 {
		t.Fatalf("len(EventTypes) = %d, want 17", len(EventTypes))
	}
	for _, et := range EventTypes {
		if !et.IsValid() {
			t.Errorf("EventType(%q).IsValid() = false", et)
		}
	}
	if EventType("deleted_account").IsValid() {
		t.Error("unknown event type reported valid")
	}
}

func TestEventType_IsAuthAlert(t *testing.T) {
	t.Parallel()

	if !EventSessionExpired.IsAuthAlert() || !EventAuthFailed.IsAuthAlert() {
		t.Fatal("auth events not reported as alerts")
	}
	if EventFollowerChange.IsAuthAlert() {
		t.Fatal("follower_change reported as alert")
	}
}

func TestRetentionPolicy_IsValid(t *testing.T) {
	t.Parallel()

	if !RetentionPurge.IsValid() || !RetentionOrphan.IsValid() {
		t.Fatal("known policies reported invalid")
	}
	if RetentionPolicy("archive").IsValid() {
		t.Fatal("unknown policy reported valid")
	}
}
