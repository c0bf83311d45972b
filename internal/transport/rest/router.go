package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/coral-backend/internal/config"
	"github.com/heartmarshall/coral-backend/internal/transport/middleware"
)

// Handlers groups every REST handler the router mounts. Stream is the
// websocket endpoint for live events.
type Handlers struct {
	Health   *HealthHandler
	Scan     *ScanHandler
	Identity *IdentityHandler
	Monitor  *MonitorHandler
	Feed     *FeedHandler
	Notify   *NotifyHandler
	Stream   http.Handler
}

// RouterConfig holds the transport settings the router applies.
type RouterConfig struct {
	CORS             config.CORSConfig
	TrustProxy       bool
	ScanPerMinute    int
	WebhookPerMinute int
}

// NewRouter builds the HTTP handler. limiter may be nil to disable rate limits.
func NewRouter(h Handlers, cfg RouterConfig, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Chain(
		middleware.RequestID(),
		middleware.ClientIP(cfg.TrustProxy),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/live", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Get("/health", h.Health.Health)

	r.With(limiter.Limit(cfg.ScanPerMinute)).Post("/scan", h.Scan.Scan)
	r.Get("/sites", h.Scan.Sites)
	r.Get("/sites/tags", h.Scan.Tags)

	r.Route("/identities", func(r chi.Router) {
		r.Get("/", h.Identity.List)
		r.Post("/", h.Identity.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Identity.Get)
			r.Patch("/", h.Identity.Update)
			r.Delete("/", h.Identity.Delete)
			r.Get("/accounts", h.Identity.ListAccounts)
			r.Post("/accounts", h.Identity.LinkAccount)
		})
	})
	r.Patch("/accounts/{id}", h.Identity.UpdateAccount)
	r.Delete("/accounts/{id}", h.Identity.DeleteAccount)

	r.With(limiter.Limit(cfg.WebhookPerMinute)).Post("/webhooks/{platform}", h.Monitor.Webhook)
	r.Post("/check/{account_id}", h.Monitor.Check)
	r.Post("/check-all", h.Monitor.CheckAll)

	r.Get("/events", h.Feed.Events)
	r.Get("/stats", h.Feed.Stats)
	if h.Stream != nil {
		r.Method(http.MethodGet, "/events/stream", h.Stream)
	}
	r.Post("/notifications/test", h.Notify.Test)

	return r
}
