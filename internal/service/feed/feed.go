package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// ListEvents returns one page of events, newest first.
func (s *Service) ListEvents(ctx context.Context, f domain.EventFilter) (domain.EventPage, error) {
	if f.Since != nil && f.Until != nil && f.Until.Before(*f.Since) {
		return domain.EventPage{}, domain.NewValidationError("until", "must not be before since")
	}
	page, err := s.events.List(ctx, f.Normalize())
	if err != nil {
		return domain.EventPage{}, fmt.Errorf("list events: %w", err)
	}
	if page.Events == nil {
		page.Events = []domain.Event{}
	}
	return page, nil
}

// ListIdentitySummaries returns every identity with its account count and
// latest event.
func (s *Service) ListIdentitySummaries(ctx context.Context) ([]domain.IdentitySummary, error) {
	out, err := s.identities.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	if out == nil {
		out = []domain.IdentitySummary{}
	}
	return out, nil
}

// Stats aggregates the dashboard counters. Event counts cover the last 24h.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	identities, err := s.identities.Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count identities: %w", err)
	}
	accounts, err := s.accounts.Count(ctx, s.threshold)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count accounts: %w", err)
	}
	byType, err := s.events.CountByTypeSince(ctx, s.now().Add(-24*time.Hour))
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count events: %w", err)
	}

	var total int
	for _, n := range byType {
		total += n
	}

	return domain.Stats{
		Identities:      identities,
		Accounts:        accounts.Total,
		EnabledAccounts: accounts.Enabled,
		FailingAccounts: accounts.Failing,
		Events24h:       total,
		EventsByType:    byType,
	}, nil
}
