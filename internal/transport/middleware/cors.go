package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/heartmarshall/coral-backend/internal/config"
	"github.com/heartmarshall/coral-backend/internal/domain"
)

// CORS handles cross-origin requests for the browser dashboard. Preflights
// are answered directly; other requests pass through with the allow headers
// set when the origin matches. X-Request-Id is exposed so the dashboard can
// quote it in bug reports.
func CORS(cfg config.CORSConfig) Middleware {
	allowed := originMatcher(cfg.AllowedOrigins)
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if origin != "" && allowed(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
				h.Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OriginAllowed reports whether a request's Origin is in the CORS allow-list.
// Requests without an Origin header (CLI clients, same-origin) are accepted.
// The event stream uses it as its websocket origin check.
func OriginAllowed(cfg config.CORSConfig) func(r *http.Request) bool {
	allowed := originMatcher(cfg.AllowedOrigins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed(origin)
	}
}

func originMatcher(list string) func(origin string) bool {
	origins := domain.SplitList(list)
	return func(origin string) bool {
		for _, a := range origins {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
