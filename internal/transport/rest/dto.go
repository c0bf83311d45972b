package rest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// stringList accepts either a JSON array of strings or a single comma- or
// newline-separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = domain.SplitList(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return domain.NewValidationError("list", "must be a string or an array of strings")
	}
	*l = domain.CleanList(many)
	return nil
}

// ---------------------------------------------------------------------------
// Identities and accounts
// ---------------------------------------------------------------------------

type identityResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toIdentityResponse(i *domain.Identity) identityResponse {
	return identityResponse{
		ID:        i.ID,
		Name:      i.Name,
		Notes:     i.Notes,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

type identitySummaryResponse struct {
	identityResponse
	AccountCount int            `json:"account_count"`
	LatestEvent  *eventResponse `json:"latest_event"`
}

func toIdentitySummaries(in []domain.IdentitySummary) []identitySummaryResponse {
	out := make([]identitySummaryResponse, len(in))
	for i := range in {
		out[i] = identitySummaryResponse{
			identityResponse: toIdentityResponse(&in[i].Identity),
			AccountCount:     in[i].AccountCount,
		}
		if in[i].LatestEvent != nil {
			e := toEventResponse(*in[i].LatestEvent)
			out[i].LatestEvent = &e
		}
	}
	return out
}

type accountResponse struct {
	ID          uuid.UUID             `json:"id"`
	IdentityID  uuid.UUID             `json:"identity_id"`
	Platform    domain.Platform       `json:"platform"`
	Username    string                `json:"username"`
	Enabled     bool                  `json:"enabled"`
	Config      domain.PlatformConfig `json:"config"`
	LastState   *domain.PlatformState `json:"last_state"`
	LastChecked *time.Time            `json:"last_checked"`
	ErrorCount  int                   `json:"error_count"`
	LastError   *string               `json:"last_error"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		IdentityID:  a.IdentityID,
		Platform:    a.Platform,
		Username:    a.Username,
		Enabled:     a.Enabled,
		Config:      a.Config,
		LastState:   a.LastState,
		LastChecked: a.LastChecked,
		ErrorCount:  a.ErrorCount,
		LastError:   a.LastError,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toAccountResponses(in []domain.Account) []accountResponse {
	out := make([]accountResponse, len(in))
	for i := range in {
		out[i] = toAccountResponse(&in[i])
	}
	return out
}

// ---------------------------------------------------------------------------
// Events and stats
// ---------------------------------------------------------------------------

type eventResponse struct {
	ID         uuid.UUID       `json:"id"`
	AccountID  *uuid.UUID      `json:"account_id"`
	IdentityID *uuid.UUID      `json:"identity_id"`
	Platform   domain.Platform `json:"platform"`
	Username   string          `json:"username"`
	EventType  string          `json:"event_type"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload"`
	EventTime  *time.Time      `json:"event_time"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toEventResponse(e domain.Event) eventResponse {
	payload := e.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return eventResponse{
		ID:         e.ID,
		AccountID:  e.AccountID,
		IdentityID: e.IdentityID,
		Platform:   e.Platform,
		Username:   e.Username,
		EventType:  e.Type.String(),
		Summary:    e.Summary,
		Payload:    payload,
		EventTime:  e.EventTime,
		CreatedAt:  e.CreatedAt,
	}
}

func toEventResponses(in []domain.Event) []eventResponse {
	out := make([]eventResponse, len(in))
	for i := range in {
		out[i] = toEventResponse(in[i])
	}
	return out
}

type eventPageResponse struct {
	Events []eventResponse `json:"events"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type statsResponse struct {
	Identities      int            `json:"identities"`
	Accounts        int            `json:"accounts"`
	EnabledAccounts int            `json:"enabled_accounts"`
	FailingAccounts int            `json:"failing_accounts"`
	Events24h       int            `json:"events_24h"`
	EventsByType    map[string]int `json:"events_by_type"`
}

func toStatsResponse(s domain.Stats) statsResponse {
	byType := make(map[string]int, len(s.EventsByType))
	for t, n := range s.EventsByType {
		byType[t.String()] = n
	}
	return statsResponse{
		Identities:      s.Identities,
		Accounts:        s.Accounts,
		EnabledAccounts: s.EnabledAccounts,
		FailingAccounts: s.FailingAccounts,
		Events24h:       s.Events24h,
		EventsByType:    byType,
	}
}

// ---------------------------------------------------------------------------
// Scan
// ---------------------------------------------------------------------------

type scanFilters struct {
	TopSites        int      `json:"top_sites"`
	Timeout         float64  `json:"timeout"`
	MaxConnections  int      `json:"max_connections"`
	Retries         int      `json:"retries"`
	Tags            []string `json:"tags"`
	SiteList        []string `json:"site_list"`
	AllSites        bool     `json:"all_sites"`
	IncludeDisabled bool     `json:"include_disabled"`
	CheckDomains    bool     `json:"check_domains"`
	UseCookies      bool     `json:"use_cookies"`
}

type scanStats struct {
	CheckedSites int   `json:"checked_sites"`
	ScopeSites   int   `json:"scope_sites"`
	FoundSites   int   `json:"found_sites"`
	ErrorSites   int   `json:"error_sites"`
	SkippedSites int   `json:"skipped_sites"`
	DurationMS   int64 `json:"duration_ms"`
}

type foundSite struct {
	SiteName string   `json:"site_name"`
	URL      string   `json:"url,omitempty"`
	Tags     []string `json:"tags"`
}

type siteOutcome struct {
	SiteName  string `json:"site_name"`
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Attempts  int    `json:"attempts"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// ScanResponse is the public JSON shape of a scan report. The scan CLI prints
// the same document.
type ScanResponse struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Stats     scanStats     `json:"stats"`
	Filters   scanFilters   `json:"filters"`
	Found     []foundSite   `json:"found"`
	Outcomes  []siteOutcome `json:"outcomes"`
	Cancelled bool          `json:"cancelled"`
	StartedAt time.Time     `json:"started_at"`
}

// NewScanResponse renders a report.
func NewScanResponse(r *domain.ScanReport) ScanResponse {
	opts := r.Options
	resp := ScanResponse{
		ID:       r.ID,
		Username: r.Username,
		Stats: scanStats{
			CheckedSites: r.Stats.CheckedSites,
			ScopeSites:   r.Stats.ScopeSites,
			FoundSites:   r.Stats.FoundSites,
			ErrorSites:   r.Stats.ErrorSites,
			SkippedSites: r.Stats.SkippedSites,
			DurationMS:   r.Stats.Duration.Milliseconds(),
		},
		Filters: scanFilters{
			TopSites:        opts.TopSites,
			Timeout:         opts.Timeout.Seconds(),
			MaxConnections:  opts.MaxConnections,
			Retries:         opts.Retries,
			Tags:            nonNil(opts.Tags),
			SiteList:        nonNil(opts.SiteList),
			AllSites:        opts.AllSites,
			IncludeDisabled: opts.IncludeDisabled,
			CheckDomains:    opts.CheckDomains,
			UseCookies:      opts.UseCookies,
		},
		Found:     make([]foundSite, len(r.Found)),
		Outcomes:  make([]siteOutcome, len(r.Outcomes)),
		Cancelled: r.Cancelled,
		StartedAt: r.StartedAt,
	}
	for i, f := range r.Found {
		resp.Found[i] = foundSite{SiteName: f.SiteName, URL: f.URL, Tags: nonNil(f.Tags)}
	}
	for i, o := range r.Outcomes {
		resp.Outcomes[i] = siteOutcome{
			SiteName:  o.SiteName,
			Status:    string(o.Status),
			URL:       o.URL,
			Reason:    o.Reason,
			Attempts:  o.Attempts,
			ElapsedMS: o.Elapsed.Milliseconds(),
		}
	}
	return resp
}

// ---------------------------------------------------------------------------
// Sites
// ---------------------------------------------------------------------------

type siteResponse struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	URLMain         string   `json:"url_main,omitempty"`
	CheckType       string   `json:"check_type"`
	Tags            []string `json:"tags"`
	Disabled        bool     `json:"disabled"`
	RequiresCookies bool     `json:"requires_cookies"`
	Rank            int      `json:"rank"`
}

func toSiteResponse(s domain.Site) siteResponse {
	return siteResponse{
		Name:            s.Name,
		URL:             s.URL,
		URLMain:         s.URLMain,
		CheckType:       s.CheckType.String(),
		Tags:            nonNil(s.Tags),
		Disabled:        s.Disabled,
		RequiresCookies: s.RequiresCookies,
		Rank:            s.Rank,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
