package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// CheckAccount runs the platform checker for one account and ingests the
// result. Concurrent calls for the same account share a single checker call.
//
// A checker failure is recorded on the account and returned wrapped in
// ErrCheckerFailure together with any alert events it produced.
func (s *Service) CheckAccount(ctx context.Context, id uuid.UUID) ([]domain.Event, error) {
	type result struct {
		events   []domain.Event
		checkErr error
	}

	v, err, _ := s.checks.Do(id.String(), func() (any, error) {
		acc, err := s.accounts.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get account: %w", err)
		}

		cctx, cancel := context.WithTimeout(ctx, s.cfg.CheckTimeout)
		state, checkErr := s.checker.Check(cctx, *acc)
		cancel()
		if checkErr != nil && ctx.Err() != nil {
			// Caller went away; do not count it against the account.
			return nil, ctx.Err()
		}

		events, err := s.Ingest(ctx, id, Source{State: state, Err: checkErr, Origin: "check"})
		if err != nil {
			return nil, err
		}
		return result{events: events, checkErr: checkErr}, nil
	})
	if err != nil {
		return nil, err
	}

	r := v.(result)
	if r.checkErr != nil {
		return r.events, fmt.Errorf("check %s: %w: %w", id, domain.ErrCheckerFailure, r.checkErr)
	}
	return r.events, nil
}

// CheckAllResult summarizes a CheckAll run.
type CheckAllResult struct {
	Checked  int
	Failed   int
	Events   int
	Duration time.Duration
}

// CheckAll checks every enabled account with at most cfg.Workers checks in
// flight. Per-account failures are counted, never returned.
func (s *Service) CheckAll(ctx context.Context) (CheckAllResult, error) {
	start := time.Now()
	enabled := true
	accounts, err := s.accounts.List(ctx, domain.AccountFilter{Enabled: &enabled})
	if err != nil {
		return CheckAllResult{}, fmt.Errorf("list accounts: %w", err)
	}

	var checked, failed, events atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, acc := range accounts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			evs, err := s.CheckAccount(gctx, acc.ID)
			checked.Add(1)
			events.Add(int64(len(evs)))
			if err != nil {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := CheckAllResult{
		Checked:  int(checked.Load()),
		Failed:   int(failed.Load()),
		Events:   int(events.Load()),
		Duration: time.Since(start),
	}
	s.log.InfoContext(ctx, "check all finished",
		slog.Int("accounts", len(accounts)),
		slog.Int("checked", res.Checked),
		slog.Int("failed", res.Failed),
		slog.Int("events", res.Events),
		slog.Duration("duration", res.Duration),
	)
	return res, ctx.Err()
}

// TriggerCheck verifies the account exists and checks it in the background.
func (s *Service) TriggerCheck(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	s.detach(func(ctx context.Context) {
		if _, err := s.CheckAccount(ctx, id); err != nil {
			s.log.WarnContext(ctx, "triggered check failed",
				slog.String("account_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
	})
	return nil
}

// TriggerCheckAll starts CheckAll in the background.
func (s *Service) TriggerCheckAll() {
	s.detach(func(ctx context.Context) {
		if _, err := s.CheckAll(ctx); err != nil {
			s.log.WarnContext(ctx, "triggered check all failed", slog.String("error", err.Error()))
		}
	})
}
