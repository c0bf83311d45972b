// Package feed serves the read side: the event feed, identity previews and
// dashboard statistics.
package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

type eventRepo interface {
	List(ctx context.Context, f domain.EventFilter) (domain.EventPage, error)
	CountByTypeSince(ctx context.Context, since time.Time) (map[domain.EventType]int, error)
}

type identityRepo interface {
	ListSummaries(ctx context.Context) ([]domain.IdentitySummary, error)
	Count(ctx context.Context) (int, error)
}

type accountRepo interface {
	Count(ctx context.Context, failingThreshold int) (domain.AccountCounts, error)
}

// Service implements the feed read operations.
type Service struct {
	events     eventRepo
	identities identityRepo
	accounts   accountRepo
	threshold  int
	now        func() time.Time
	log        *slog.Logger
}

// NewService creates a new Feed service. failingThreshold is the error streak
// at which an account counts as failing.
func NewService(
	log *slog.Logger,
	events eventRepo,
	identities identityRepo,
	accounts accountRepo,
	failingThreshold int,
) *Service {
	if failingThreshold < 1 {
		failingThreshold = 1
	}
	return &Service{
		events:     events,
		identities: identities,
		accounts:   accounts,
		threshold:  failingThreshold,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.With("service", "feed"),
	}
}
