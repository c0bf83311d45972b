// Package notify delivers ingested events to operator-facing channels.
// Delivery is best effort: failures are logged and reported per channel,
// never returned to the ingestion path.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Channel is one delivery target.
type Channel interface {
	Name() string
	Send(ctx context.Context, e domain.Event) error
}

// Dispatcher fans an event out to every configured channel.
type Dispatcher struct {
	channels []Channel
	enabled  bool
	timeout  time.Duration
	log      *slog.Logger
}

// NewDispatcher creates a Dispatcher. When enabled is false, Notify only
// reaches channels that report themselves as always-on (the live stream).
func NewDispatcher(logger *slog.Logger, enabled bool, timeout time.Duration, channels ...Channel) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		channels: channels,
		enabled:  enabled,
		timeout:  timeout,
		log:      logger.With("adapter", "notify"),
	}
}

// alwaysOn is implemented by channels that ignore the global switch.
type alwaysOn interface {
	AlwaysOn() bool
}

// Channels lists the configured channel names.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, c := range d.channels {
		names[i] = c.Name()
	}
	return names
}

// Notify sends e to all active channels concurrently and reports, per channel,
// whether delivery succeeded.
func (d *Dispatcher) Notify(ctx context.Context, e domain.Event) map[string]bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]bool, len(d.channels))
		g       errgroup.Group
	)
	for _, c := range d.channels {
		if !d.enabled {
			if a, ok := c.(alwaysOn); !ok || !a.AlwaysOn() {
				continue
			}
		}
		g.Go(func() error {
			err := c.Send(ctx, e)
			if err != nil {
				d.log.WarnContext(ctx, "notification failed",
					slog.String("channel", c.Name()),
					slog.String("event_type", string(e.Type)),
					slog.String("error", err.Error()),
				)
			}
			mu.Lock()
			results[c.Name()] = err == nil
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// EventMessage is the JSON form of an event pushed to external channels.
type EventMessage struct {
	ID         string          `json:"id"`
	AccountID  *string         `json:"account_id"`
	IdentityID *string         `json:"identity_id"`
	Platform   string          `json:"platform"`
	Username   string          `json:"username"`
	EventType  string          `json:"event_type"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload"`
	EventTime  *time.Time      `json:"event_time,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewEventMessage converts a domain event.
func NewEventMessage(e domain.Event) EventMessage {
	m := EventMessage{
		ID:        e.ID.String(),
		Platform:  string(e.Platform),
		Username:  e.Username,
		EventType: string(e.Type),
		Summary:   e.Summary,
		Payload:   e.Payload,
		EventTime: e.EventTime,
		CreatedAt: e.CreatedAt,
	}
	if e.AccountID != nil {
		s := e.AccountID.String()
		m.AccountID = &s
	}
	if e.IdentityID != nil {
		s := e.IdentityID.String()
		m.IdentityID = &s
	}
	if len(m.Payload) == 0 {
		m.Payload = json.RawMessage("{}")
	}
	return m
}

func title(e domain.Event) string {
	return e.Platform.Title() + ": " + e.Username
}
