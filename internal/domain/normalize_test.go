package domain

import (
	"reflect"
	"testing"
)

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"  alice  ", "alice"},
		{"@alice", "alice"},
		{" @ alice", "alice"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUsername(tt.input); got != tt.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "comma", input: "photo, music", want: []string{"photo", "music"}},
		{name: "newline", input: "photo\nmusic\r\n", want: []string{"photo", "music"}},
		{name: "mixed and empty", input: ",photo,,\nmusic,", want: []string{"photo", "music"}},
		{name: "duplicates", input: "GitHub,github", want: []string{"GitHub"}},
		{name: "empty", input: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SplitList(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
