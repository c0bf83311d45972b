package domain

import (
	"strings"
)

// NormalizeUsername trims whitespace and a single leading "@".
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.TrimSpace(s)
}

// SplitList splits a comma- or newline-separated list, trimming entries and
// dropping empty ones. Order is preserved and duplicates (case-insensitive) removed.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	return CleanList(fields)
}

// CleanList trims entries, drops empty ones and removes case-insensitive duplicates.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		key := strings.ToLower(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
