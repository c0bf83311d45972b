package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

type notifier interface {
	Notify(ctx context.Context, e domain.Event) map[string]bool
	Channels() []string
}

// NotifyHandler serves the notification test endpoint.
type NotifyHandler struct {
	notifier notifier
	log      *slog.Logger
}

// NewNotifyHandler creates a NotifyHandler.
func NewNotifyHandler(n notifier, logger *slog.Logger) *NotifyHandler {
	return &NotifyHandler{notifier: n, log: logger.With("handler", "notify")}
}

// Test handles POST /notifications/test. It sends a synthetic event to every
// configured channel and reports per-channel delivery.
func (h *NotifyHandler) Test(w http.ResponseWriter, r *http.Request) {
	e := domain.Event{
		ID:        uuid.New(),
		Platform:  domain.PlatformInstagram,
		Username:  "coral",
		Type:      domain.EventFollowerChange,
		Summary:   "Test notification",
		Payload:   []byte(`{"old":0,"new":1}`),
		CreatedAt: time.Now().UTC(),
	}

	results := h.notifier.Notify(r.Context(), e)
	h.log.InfoContext(r.Context(), "test notification sent", slog.Any("results", results))

	writeJSON(w, http.StatusOK, map[string]any{
		"channels": h.notifier.Channels(),
		"results":  results,
	})
}
