package monitor

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler periodically runs CheckAll.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	log      *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(svc *Service, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{svc: svc, interval: interval, log: log.With("component", "scheduler")}
}

// Run checks all accounts immediately and then every interval until ctx is
// cancelled. Runs never overlap.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started", slog.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.svc.CheckAll(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("scheduled check failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
