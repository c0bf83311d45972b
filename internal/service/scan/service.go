// Package scan implements the Scan Orchestrator: a bounded-concurrency fan-out
// of one username across the scoped subset of the Site Catalog.
package scan

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

type prober interface {
	Probe(ctx context.Context, site domain.Site, username string, useCookies bool) domain.ProbeResult
}

type siteCatalog interface {
	Ranked() []domain.Site
}

// Limits holds defaults and hard caps for scan options.
type Limits struct {
	DefaultTopSites       int
	MaxTopSites           int
	DefaultTimeout        time.Duration
	MaxTimeout            time.Duration
	DefaultMaxConnections int
	MaxConnections        int
	MaxRetries            int
	RetryBackoff          time.Duration
	// CancelGrace bounds how long a probe may overrun its deadline before the
	// orchestrator abandons it and frees its slot.
	CancelGrace time.Duration
}

// Service runs username scans.
type Service struct {
	catalog siteCatalog
	prober  prober
	limits  Limits
	log     *slog.Logger
}

// NewService creates a new Scan service.
func NewService(log *slog.Logger, catalog siteCatalog, prober prober, limits Limits) *Service {
	if limits.RetryBackoff <= 0 {
		limits.RetryBackoff = 250 * time.Millisecond
	}
	if limits.CancelGrace <= 0 {
		limits.CancelGrace = 500 * time.Millisecond
	}
	return &Service{
		catalog: catalog,
		prober:  prober,
		limits:  limits,
		log:     log.With("service", "scan"),
	}
}
