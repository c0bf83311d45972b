package rest

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/service/monitor"
	"github.com/heartmarshall/coral-backend/pkg/ctxutil"
)

// WebhookSecretHeader carries the per-platform shared secret.
const WebhookSecretHeader = "X-Webhook-Secret"

type monitorService interface {
	IngestWebhook(ctx context.Context, in monitor.WebhookInput) ([]domain.Event, error)
	TriggerCheck(ctx context.Context, id uuid.UUID) error
	TriggerCheckAll()
}

// MonitorHandler serves webhook ingestion and check triggers.
type MonitorHandler struct {
	svc     monitorService
	secrets map[domain.Platform]string
	maxBody int64
	log     *slog.Logger
}

// NewMonitorHandler creates a MonitorHandler. Platforms missing from secrets
// do not accept webhooks.
func NewMonitorHandler(svc monitorService, secrets map[domain.Platform]string, maxBody int64, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{svc: svc, secrets: secrets, maxBody: maxBody, log: logger.With("handler", "monitor")}
}

type webhookRequest struct {
	Username  string                `json:"username"`
	State     *domain.PlatformState `json:"state"`
	EventTime string                `json:"event_time"`
}

// Webhook handles POST /webhooks/{platform}.
func (h *MonitorHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	platform := domain.Platform(lower(chi.URLParam(r, "platform")))
	if !platform.IsValid() {
		handleError(h.log, w, r, fmt.Errorf("platform %q: %w", platform, domain.ErrNotFound))
		return
	}

	secret, ok := h.secrets[platform]
	if !ok {
		handleError(h.log, w, r, domain.ErrWebhookDisabled)
		return
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(WebhookSecretHeader)), []byte(secret)) != 1 {
		h.log.WarnContext(r.Context(), "webhook rejected: bad secret",
			slog.String("platform", platform.String()),
			slog.String("client_ip", ctxutil.ClientIPFromCtx(r.Context())),
		)
		handleError(h.log, w, r, domain.ErrUnauthorized)
		return
	}

	var req webhookRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	in := monitor.WebhookInput{Platform: platform, Username: req.Username, State: req.State}
	if s := strings.TrimSpace(req.EventTime); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			handleError(h.log, w, r, domain.NewValidationError("event_time", "must be RFC 3339"))
			return
		}
		t = t.UTC()
		in.EventTime = &t
	}

	events, err := h.svc.IngestWebhook(r.Context(), in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": toEventResponses(events),
		"count":  len(events),
	})
}

// Check handles POST /check/{account_id}. The check runs in the background;
// its outcome appears in the event feed.
func (h *MonitorHandler) Check(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "account_id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.TriggerCheck(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "account_id": id.String()})
}

// CheckAll handles POST /check-all.
func (h *MonitorHandler) CheckAll(w http.ResponseWriter, r *http.Request) {
	h.svc.TriggerCheckAll()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
