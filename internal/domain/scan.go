package domain

import (
	"time"
)

// ProbeStatus is the tagged result of a single probe.
type ProbeStatus string

const (
	ProbeFound     ProbeStatus = "found"
	ProbeNotFound  ProbeStatus = "not_found"
	ProbeTransient ProbeStatus = "transient"
)

// ProbeResult is what a Probe Executor returns for one (site, username) pair.
// Only ProbeTransient results are eligible for retry.
type ProbeResult struct {
	Status     ProbeStatus
	URL        string
	HTTPStatus int
	Reason     string
}

// Retryable reports whether the orchestrator may re-attempt the probe.
func (r ProbeResult) Retryable() bool { return r.Status == ProbeTransient }

// OutcomeStatus is the per-site status recorded in a ScanReport.
type OutcomeStatus string

const (
	OutcomeFound    OutcomeStatus = "found"
	OutcomeNotFound OutcomeStatus = "not_found"
	OutcomeError    OutcomeStatus = "error"
	OutcomeSkipped  OutcomeStatus = "skipped"
)

// ScanOptions are the resolved, bounded parameters of one scan.
type ScanOptions struct {
	TopSites        int
	Timeout         time.Duration
	MaxConnections  int
	Retries         int
	Tags            []string
	SiteList        []string
	AllSites        bool
	IncludeDisabled bool
	CheckDomains    bool
	UseCookies      bool
}

// SiteOutcome is the final result for one scoped site.
type SiteOutcome struct {
	SiteName string
	Status   OutcomeStatus
	URL      string
	Tags     []string
	Reason   string
	Attempts int
	Elapsed  time.Duration
}

// FoundSite is a confirmed presence, as listed in ScanReport.Found.
type FoundSite struct {
	SiteName string
	URL      string
	Tags     []string
}

// ScanStats aggregates a scan.
type ScanStats struct {
	CheckedSites int
	ScopeSites   int
	FoundSites   int
	ErrorSites   int
	SkippedSites int
	Duration     time.Duration
}

// ScanReport is the transient aggregate of one scan. It is never persisted.
type ScanReport struct {
	ID        string
	Username  string
	Options   ScanOptions
	Scope     []string
	Found     []FoundSite
	Outcomes  []SiteOutcome
	Stats     ScanStats
	Cancelled bool
	StartedAt time.Time
}
