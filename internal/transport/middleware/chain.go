package middleware

import "net/http"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// passthrough is the identity middleware.
func passthrough(next http.Handler) http.Handler { return next }

// Chain composes mws so the first one is outermost: Chain(a, b)(h) is a(b(h)).
// Nil entries are skipped, which lets callers pass optional middleware
// (a disabled rate limit, for instance) without branching.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			if mws[i] != nil {
				final = mws[i](final)
			}
		}
		return final
	}
}
