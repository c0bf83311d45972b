package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// WebhookInput is a platform-normalized webhook payload.
type WebhookInput struct {
	Platform  domain.Platform
	Username  string
	State     *domain.PlatformState
	EventTime *time.Time
}

// IngestWebhook resolves the account named by the payload and ingests its
// state. Payloads for accounts that are not linked fail with
// ErrUnknownAccount. Disabled accounts accept the payload without producing
// events.
func (s *Service) IngestWebhook(ctx context.Context, in WebhookInput) ([]domain.Event, error) {
	username := domain.NormalizeUsername(in.Username)
	if username == "" {
		return nil, domain.NewValidationError("username", "required")
	}
	if in.State == nil {
		return nil, domain.NewValidationError("state", "required")
	}

	acc, err := s.accounts.GetByPlatformUsername(ctx, in.Platform, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "webhook for unknown account",
				slog.String("platform", string(in.Platform)),
				slog.String("username", username),
			)
			return nil, fmt.Errorf("%s/%s: %w", in.Platform, username, domain.ErrUnknownAccount)
		}
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	if !acc.Enabled {
		s.log.InfoContext(ctx, "webhook for disabled account ignored",
			slog.String("account_id", acc.ID.String()),
		)
		return []domain.Event{}, nil
	}

	return s.Ingest(ctx, acc.ID, Source{State: in.State, EventTime: in.EventTime, Origin: "webhook"})
}
