package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/heartmarshall/coral-backend/internal/classify"
	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Source is one observation of an account: either a state (from a webhook or
// a successful check) or the error of a failed check.
type Source struct {
	State *domain.PlatformState
	Err   error
	// EventTime is the external time the source reports, if any.
	EventTime *time.Time
	Origin    string
}

// Ingest applies src to the account and returns the events it produced.
//
// The new state is merged over the stored snapshot and diffed against it, so
// ingesting the same snapshot twice yields events only once. Events and the
// account row are written in one transaction; notification happens after
// commit and never affects the result.
func (s *Service) Ingest(ctx context.Context, accountID uuid.UUID, src Source) ([]domain.Event, error) {
	if src.State == nil && src.Err == nil {
		return nil, domain.NewValidationError("state", "required")
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	var (
		events   []domain.Event
		username string
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.GetByIDForUpdate(ctx, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountID, domain.ErrUnknownAccount)
			}
			return err
		}
		username = acc.Username

		now := s.now()
		events = s.apply(acc, src, now)
		stamp(events, now, src.EventTime)

		if err := s.events.InsertBatch(ctx, events); err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
		if err := s.accounts.UpdateCheckState(ctx, acc, now); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	if len(events) > 0 {
		s.log.InfoContext(ctx, "events ingested",
			slog.String("account_id", accountID.String()),
			slog.String("username", username),
			slog.String("origin", src.Origin),
			slog.Int("count", len(events)),
		)
		s.dispatch(events)
	}
	return events, nil
}

// apply updates acc in place and returns the unstamped events.
func (s *Service) apply(acc *domain.Account, src Source, now time.Time) []domain.Event {
	sub := classify.Subject{
		AccountID:  acc.ID,
		IdentityID: acc.IdentityID,
		Platform:   acc.Platform,
		Username:   acc.Username,
	}

	if src.Err != nil {
		msg := src.Err.Error()
		// Alert on the first failure of a streak, or when the failure changes.
		fresh := acc.LastError == nil || *acc.LastError != msg
		acc.RecordFailure(now, msg)

		s.log.Warn("check failed",
			slog.String("account_id", acc.ID.String()),
			slog.String("platform", string(acc.Platform)),
			slog.Int("error_count", acc.ErrorCount),
			slog.String("error", msg),
		)

		if t, ok := s.checker.ClassifyFailure(acc.Platform, src.Err); ok && fresh {
			return []domain.Event{classify.AuthAlert(sub, t, msg)}
		}
		return nil
	}

	curr := src.State.Merge(acc.LastState)
	events := classify.Classify(sub, acc.LastState, curr)
	acc.RecordSuccess(now, curr)
	return events
}

// stamp assigns time-ordered ids and timestamps.
func stamp(events []domain.Event, now time.Time, eventTime *time.Time) {
	for i := range events {
		events[i].ID = uuid.UUID(ulid.Make())
		events[i].CreatedAt = now
		events[i].EventTime = eventTime
	}
}

func (s *Service) dispatch(events []domain.Event) {
	if s.notifier == nil {
		return
	}
	s.detach(func(ctx context.Context) {
		for _, e := range events {
			s.notifier.Notify(ctx, e)
		}
	})
}
