package rest

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

type feedService interface {
	ListEvents(ctx context.Context, f domain.EventFilter) (domain.EventPage, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// FeedHandler serves the event feed and dashboard statistics.
type FeedHandler struct {
	svc feedService
	log *slog.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(svc feedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{svc: svc, log: logger.With("handler", "feed")}
}

// Events handles GET /events?platform=&identity_id=&account_id=&event_type=&since=&until=&limit=&offset=.
func (h *FeedHandler) Events(w http.ResponseWriter, r *http.Request) {
	f, err := parseEventFilter(r.URL.Query())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	page, err := h.svc.ListEvents(r.Context(), f)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, eventPageResponse{
		Events: toEventResponses(page.Events),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// Stats handles GET /stats.
func (h *FeedHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

// parseEventFilter collects every malformed parameter before failing.
func parseEventFilter(q url.Values) (domain.EventFilter, error) {
	var (
		f    domain.EventFilter
		errs []domain.FieldError
	)
	bad := func(field, msg string) {
		errs = append(errs, domain.FieldError{Field: field, Message: msg})
	}

	if v := q.Get("platform"); v != "" {
		p := domain.Platform(lower(v))
		if p.IsValid() {
			f.Platform = &p
		} else {
			bad("platform", "unsupported platform")
		}
	}
	if v := q.Get("event_type"); v != "" {
		t := domain.EventType(lower(v))
		if t.IsValid() {
			f.Type = &t
		} else {
			bad("event_type", "unknown event type")
		}
	}
	for _, p := range []struct {
		name string
		dst  **uuid.UUID
	}{{"identity_id", &f.IdentityID}, {"account_id", &f.AccountID}} {
		if v := q.Get(p.name); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				bad(p.name, "must be a valid UUID")
				continue
			}
			*p.dst = &id
		}
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"since", &f.Since}, {"until", &f.Until}} {
		if v := q.Get(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				bad(p.name, "must be RFC 3339")
				continue
			}
			*p.dst = &t
		}
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				bad(p.name, "must be a non-negative integer")
				continue
			}
			*p.dst = n
		}
	}

	if len(errs) > 0 {
		return domain.EventFilter{}, domain.NewValidationErrors(errs)
	}
	return f, nil
}
