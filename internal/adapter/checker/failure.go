package checker

import (
	"errors"
	"strings"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// FailureClassifier inspects a checker error and reports the alert event type
// to raise, if any.
type FailureClassifier func(err error) (domain.EventType, bool)

// authKeywords mark error text that points at credentials rather than at the
// platform being unreachable.
var authKeywords = []string{
	"session", "expired", "login", "unauthorized", "401", "403", "forbidden", "token",
}

// LooksAuthRelated reports whether err is a typed auth failure or its text
// mentions one of the auth keywords. Rate limiting never counts.
func LooksAuthRelated(err error) bool {
	if err == nil || errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	if errors.Is(err, domain.ErrAuthFailure) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range authKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// AuthFailureClassifier raises t for auth-related failures.
func AuthFailureClassifier(t domain.EventType) FailureClassifier {
	return func(err error) (domain.EventType, bool) {
		if LooksAuthRelated(err) {
			return t, true
		}
		return "", false
	}
}

// DefaultClassifiers returns the built-in classifier for each platform.
// Instagram checks run on a logged-in session, so auth trouble there means the
// session has expired.
func DefaultClassifiers() map[domain.Platform]FailureClassifier {
	return map[domain.Platform]FailureClassifier{
		domain.PlatformInstagram: AuthFailureClassifier(domain.EventSessionExpired),
		domain.PlatformPinterest: AuthFailureClassifier(domain.EventAuthFailed),
		domain.PlatformSpotify:   AuthFailureClassifier(domain.EventAuthFailed),
	}
}
