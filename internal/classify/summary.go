package classify

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// maxListed caps how many names a membership summary spells out.
const maxListed = 5

func countSummary(label string, c domain.CountChange) string {
	return fmt.Sprintf("%s: %d -> %d (%+d)", label, c.Old, c.New, c.Delta())
}

func postsSummary(c domain.CountChange) string {
	n := c.Delta()
	noun := "posts"
	if n == 1 {
		noun = "post"
	}
	return fmt.Sprintf("%d new %s (%d -> %d)", n, noun, c.Old, c.New)
}

func nameSummary(from, to string) string {
	return fmt.Sprintf("Name changed: %s -> %s", from, to)
}

func privacySummary(private bool) string {
	if private {
		return "Account is now private"
	}
	return "Account is now public"
}

func pinsSummary(c domain.PinsChange) string {
	return fmt.Sprintf("%+d pins on %q (%d -> %d)", c.NewCount-c.OldCount, c.BoardName, c.OldCount, c.NewCount)
}

// listSummary renders "New follower: a, b" or "New followers: a, b, c and 4 more".
func listSummary(label string, names []string) string {
	if len(names) > 1 {
		label = plural(label)
	}
	shown := names
	if len(shown) > maxListed {
		shown = shown[:maxListed]
	}
	s := label + ": " + strings.Join(shown, ", ")
	if rest := len(names) - len(shown); rest > 0 {
		s += fmt.Sprintf(" and %d more", rest)
	}
	return s
}

func plural(label string) string {
	switch {
	case strings.HasSuffix(label, "follower"), strings.HasSuffix(label, "playlist"):
		return label + "s"
	default:
		return label
	}
}
