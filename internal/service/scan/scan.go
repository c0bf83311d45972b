package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sethvargo/go-retry"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

var errTransient = errors.New("transient probe failure")

// reasonNoSlot marks sites that could not get a connection slot.
const reasonNoSlot = "no free connection"

// indexed carries an outcome with its position in the scope, so the report
// lists outcomes in scope order however they complete.
type indexed struct {
	pos     int
	outcome domain.SiteOutcome
}

// Scan probes in.Username across the resolved scope with at most
// MaxConnections probes in flight.
//
// Per-site failures are recorded in the report. The scan itself fails only on
// invalid input, an empty scope, or cancellation before any site completed.
// When ctx is cancelled mid-scan, the partial report holds the sites that
// completed and Cancelled is set; pending sites are absent.
func (s *Service) Scan(ctx context.Context, in Input) (*domain.ScanReport, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	username := domain.NormalizeUsername(in.Username)
	opts := s.limits.Resolve(in)

	scope := ResolveScope(s.catalog.Ranked(), opts)
	if len(scope) == 0 {
		return nil, domain.NewValidationError("scope", "no catalog sites match the given filters")
	}

	report := &domain.ScanReport{
		ID:        ulid.Make().String(),
		Username:  username,
		Options:   opts,
		Scope:     make([]string, len(scope)),
		StartedAt: time.Now(),
	}
	for i, site := range scope {
		report.Scope[i] = site.Name
	}

	s.log.InfoContext(ctx, "scan started",
		slog.String("scan_id", report.ID),
		slog.String("username", username),
		slog.Int("scope_sites", len(scope)),
		slog.Int("max_connections", opts.MaxConnections),
	)

	results := make(chan indexed, len(scope))
	sl := newSlots(opts.MaxConnections, opts.Timeout+s.limits.CancelGrace)
	var wg sync.WaitGroup
	exhausted := false

dispatch:
	for pos, site := range scope {
		if reason := skipReason(site, username, opts); reason != "" {
			results <- indexed{pos: pos, outcome: domain.SiteOutcome{
				SiteName: site.Name,
				Status:   domain.OutcomeSkipped,
				URL:      site.ProfileURL(username),
				Tags:     site.Tags,
				Reason:   reason,
			}}
			continue
		}

		if !exhausted {
			err := sl.acquire(ctx)
			switch {
			case errors.Is(err, errSlotsPinned):
				exhausted = true
				s.log.WarnContext(ctx, "connection slots held by unresponsive probes",
					slog.String("scan_id", report.ID),
					slog.Int("max_connections", opts.MaxConnections),
				)
			case err != nil:
				break dispatch
			}
		}
		if exhausted {
			results <- indexed{pos: pos, outcome: domain.SiteOutcome{
				SiteName: site.Name,
				Status:   domain.OutcomeError,
				URL:      site.ProfileURL(username),
				Tags:     site.Tags,
				Reason:   reasonNoSlot,
			}}
			continue
		}

		wg.Add(1)
		go func(pos int, site domain.Site) {
			defer wg.Done()
			held := true
			defer func() {
				if held {
					sl.release()
				}
			}()
			if outcome, ok := s.checkSite(ctx, sl, &held, site, username, opts); ok {
				results <- indexed{pos: pos, outcome: outcome}
			}
		}(pos, site)
	}

	wg.Wait()
	close(results)

	collected := make([]indexed, 0, len(scope))
	for r := range results {
		collected = append(collected, r)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].pos < collected[j].pos })

	report.Cancelled = ctx.Err() != nil
	if report.Cancelled && len(collected) == 0 {
		return nil, fmt.Errorf("scan cancelled before any result: %w", ctx.Err())
	}

	report.Outcomes = make([]domain.SiteOutcome, len(collected))
	for i, r := range collected {
		report.Outcomes[i] = r.outcome
	}
	report.Found = foundSites(report.Outcomes)
	report.Stats = stats(report.Outcomes, len(scope), time.Since(report.StartedAt))

	s.log.InfoContext(ctx, "scan finished",
		slog.String("scan_id", report.ID),
		slog.Int("found", report.Stats.FoundSites),
		slog.Int("errors", report.Stats.ErrorSites),
		slog.Bool("cancelled", report.Cancelled),
		slog.Duration("duration", report.Stats.Duration),
	)
	return report, nil
}

// checkSite probes one site with retries on transient results only. held
// reports whether the caller still owns a slot for the first attempt. It
// returns ok=false when the scan was cancelled before the site resolved.
func (s *Service) checkSite(ctx context.Context, sl *slots, held *bool, site domain.Site, username string, opts domain.ScanOptions) (domain.SiteOutcome, bool) {
	start := time.Now()
	outcome := domain.SiteOutcome{SiteName: site.Name, Tags: site.Tags}

	backoff := retry.WithMaxRetries(uint64(opts.Retries), retry.NewConstant(s.limits.RetryBackoff))

	var last domain.ProbeResult
	_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
		outcome.Attempts++
		last = s.attempt(ctx, sl, held, site, username, opts)
		if last.Retryable() {
			return retry.RetryableError(errTransient)
		}
		return nil
	})

	if ctx.Err() != nil && (outcome.Attempts == 0 || last.Retryable()) {
		return outcome, false
	}

	outcome.URL = last.URL
	outcome.Elapsed = time.Since(start)
	switch last.Status {
	case domain.ProbeFound:
		outcome.Status = domain.OutcomeFound
	case domain.ProbeNotFound:
		outcome.Status = domain.OutcomeNotFound
	default:
		outcome.Status = domain.OutcomeError
		outcome.Reason = last.Reason
	}
	return outcome, true
}

// attempt runs a single probe under opts.Timeout on a slot, acquiring one
// unless held is set. A probe that overruns its deadline by more than
// CancelGrace is abandoned and reported as a timeout; its slot stays taken
// until the probe returns.
func (s *Service) attempt(ctx context.Context, sl *slots, held *bool, site domain.Site, username string, opts domain.ScanOptions) domain.ProbeResult {
	if !*held {
		if err := sl.acquire(ctx); err != nil {
			reason := "cancelled"
			if errors.Is(err, errSlotsPinned) {
				reason = reasonNoSlot
			}
			return domain.ProbeResult{Status: domain.ProbeTransient, URL: site.ProfileURL(username), Reason: reason}
		}
	}
	*held = false

	pctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	run := sl.start(func() domain.ProbeResult {
		return s.prober.Probe(pctx, site, username, opts.UseCookies)
	})

	select {
	case r := <-run.result:
		return r
	case <-pctx.Done():
	}

	grace := time.NewTimer(s.limits.CancelGrace)
	defer grace.Stop()
	select {
	case r := <-run.result:
		if r.Status == domain.ProbeFound || r.Status == domain.ProbeNotFound {
			return r
		}
	case <-grace.C:
		sl.abandon(run)
		s.log.Warn("probe abandoned past deadline", slog.String("site", site.Name))
	}

	reason := "timeout"
	if ctx.Err() != nil {
		reason = "cancelled"
	}
	return domain.ProbeResult{Status: domain.ProbeTransient, URL: site.ProfileURL(username), Reason: reason}
}

func foundSites(outcomes []domain.SiteOutcome) []domain.FoundSite {
	found := make([]domain.FoundSite, 0)
	for _, o := range outcomes {
		if o.Status == domain.OutcomeFound {
			found = append(found, domain.FoundSite{SiteName: o.SiteName, URL: o.URL, Tags: o.Tags})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return strings.ToLower(found[i].SiteName) < strings.ToLower(found[j].SiteName)
	})
	return found
}

func stats(outcomes []domain.SiteOutcome, scopeSites int, elapsed time.Duration) domain.ScanStats {
	st := domain.ScanStats{ScopeSites: scopeSites, Duration: elapsed}
	for _, o := range outcomes {
		switch o.Status {
		case domain.OutcomeSkipped:
			st.SkippedSites++
			continue
		case domain.OutcomeFound:
			st.FoundSites++
		case domain.OutcomeError:
			st.ErrorSites++
		}
		st.CheckedSites++
	}
	return st
}
