package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/coral-backend/internal/catalog"
	"github.com/heartmarshall/coral-backend/internal/config"
	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/service/identity"
	"github.com/heartmarshall/coral-backend/internal/service/monitor"
	"github.com/heartmarshall/coral-backend/internal/service/scan"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockScanService struct {
	ScanFunc func(ctx context.Context, in scan.Input) (*domain.ScanReport, error)
}

func (m *mockScanService) Scan(ctx context.Context, in scan.Input) (*domain.ScanReport, error) {
	return m.ScanFunc(ctx, in)
}

type mockCatalog struct {
	sites []domain.Site
}

func (m *mockCatalog) Ranked() []domain.Site { return m.sites }
func (m *mockCatalog) Len() int              { return len(m.sites) }
func (m *mockCatalog) Tags() []catalog.TagCount {
	return []catalog.TagCount{{Tag: "social", Count: 2}, {Tag: "music", Count: 1}}
}

type mockIdentityService struct {
	CreateIdentityFunc func(ctx context.Context, in identity.CreateIdentityInput) (*domain.Identity, error)
	GetIdentityFunc    func(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	UpdateIdentityFunc func(ctx context.Context, in identity.UpdateIdentityInput) (*domain.Identity, error)
	DeleteIdentityFunc func(ctx context.Context, id uuid.UUID) error
	LinkAccountFunc    func(ctx context.Context, in identity.LinkAccountInput) (*domain.Account, error)
	ListAccountsFunc   func(ctx context.Context, identityID uuid.UUID) ([]domain.Account, error)
	UpdateAccountFunc  func(ctx context.Context, in identity.UpdateAccountInput) (*domain.Account, error)
	DeleteAccountFunc  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockIdentityService) CreateIdentity(ctx context.Context, in identity.CreateIdentityInput) (*domain.Identity, error) {
	return m.CreateIdentityFunc(ctx, in)
}

func (m *mockIdentityService) GetIdentity(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	return m.GetIdentityFunc(ctx, id)
}

func (m *mockIdentityService) UpdateIdentity(ctx context.Context, in identity.UpdateIdentityInput) (*domain.Identity, error) {
	return m.UpdateIdentityFunc(ctx, in)
}

func (m *mockIdentityService) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	return m.DeleteIdentityFunc(ctx, id)
}

func (m *mockIdentityService) LinkAccount(ctx context.Context, in identity.LinkAccountInput) (*domain.Account, error) {
	return m.LinkAccountFunc(ctx, in)
}

func (m *mockIdentityService) ListAccounts(ctx context.Context, identityID uuid.UUID) ([]domain.Account, error) {
	return m.ListAccountsFunc(ctx, identityID)
}

func (m *mockIdentityService) UpdateAccount(ctx context.Context, in identity.UpdateAccountInput) (*domain.Account, error) {
	return m.UpdateAccountFunc(ctx, in)
}

func (m *mockIdentityService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return m.DeleteAccountFunc(ctx, id)
}

type mockMonitorService struct {
	IngestWebhookFunc func(ctx context.Context, in monitor.WebhookInput) ([]domain.Event, error)
	TriggerCheckFunc  func(ctx context.Context, id uuid.UUID) error
	checkAllCalls     atomic.Int32
}

func (m *mockMonitorService) IngestWebhook(ctx context.Context, in monitor.WebhookInput) ([]domain.Event, error) {
	return m.IngestWebhookFunc(ctx, in)
}

func (m *mockMonitorService) TriggerCheck(ctx context.Context, id uuid.UUID) error {
	return m.TriggerCheckFunc(ctx, id)
}

func (m *mockMonitorService) TriggerCheckAll() { m.checkAllCalls.Add(1) }

type mockFeedService struct {
	ListEventsFunc            func(ctx context.Context, f domain.EventFilter) (domain.EventPage, error)
	StatsFunc                 func(ctx context.Context) (domain.Stats, error)
	ListIdentitySummariesFunc func(ctx context.Context) ([]domain.IdentitySummary, error)
}

func (m *mockFeedService) ListEvents(ctx context.Context, f domain.EventFilter) (domain.EventPage, error) {
	return m.ListEventsFunc(ctx, f)
}

func (m *mockFeedService) Stats(ctx context.Context) (domain.Stats, error) {
	return m.StatsFunc(ctx)
}

func (m *mockFeedService) ListIdentitySummaries(ctx context.Context) ([]domain.IdentitySummary, error) {
	return m.ListIdentitySummariesFunc(ctx)
}

type mockNotifier struct{}

func (mockNotifier) Notify(context.Context, domain.Event) map[string]bool {
	return map[string]bool{"discord": true, "ntfy": false}
}

func (mockNotifier) Channels() []string { return []string{"discord", "ntfy"} }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testDeps struct {
	scan     *mockScanService
	catalog  *mockCatalog
	identity *mockIdentityService
	monitor  *mockMonitorService
	feed     *mockFeedService
}

func newTestRouter(t *testing.T) (http.Handler, *testDeps) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := &testDeps{
		scan: &mockScanService{},
		catalog: &mockCatalog{sites: []domain.Site{
			{Name: "GitHub", URL: "https://github.com/{username}", CheckType: domain.CheckStatusCode, Tags: []string{"coding"}, Rank: 1},
			{Name: "Instagram", URL: "https://instagram.com/{username}", CheckType: domain.CheckMessage, Tags: []string{"social"}, Rank: 2},
		}},
		identity: &mockIdentityService{},
		monitor:  &mockMonitorService{},
		feed:     &mockFeedService{},
	}
	h := Handlers{
		Health:   NewHealthHandler(&dbPingerMock{}, d.catalog, "test"),
		Scan:     NewScanHandler(d.scan, d.catalog, logger),
		Identity: NewIdentityHandler(d.identity, d.feed, logger),
		Monitor: NewMonitorHandler(d.monitor, map[domain.Platform]string{
			domain.PlatformInstagram: "s3cret",
		}, 256, logger),
		Feed:   NewFeedHandler(d.feed, logger),
		Notify: NewNotifyHandler(mockNotifier{}, logger),
	}
	cfg := RouterConfig{CORS: config.CORSConfig{AllowedOrigins: "*"}}
	return NewRouter(h, cfg, nil, logger), d
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ---------------------------------------------------------------------------
// Scan and sites
// ---------------------------------------------------------------------------

func TestScan_RequestMapping(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	var got scan.Input
	d.scan.ScanFunc = func(_ context.Context, in scan.Input) (*domain.ScanReport, error) {
		got = in
		return &domain.ScanReport{
			ID:       "01J0000000000000000000000",
			Username: "alice",
			Options:  domain.ScanOptions{TopSites: 500, Timeout: 2500 * time.Millisecond, Tags: in.Tags},
			Found:    []domain.FoundSite{{SiteName: "GitHub", URL: "https://github.com/alice", Tags: []string{"coding"}}},
			Stats:    domain.ScanStats{CheckedSites: 2, ScopeSites: 2, FoundSites: 1, Duration: 1500 * time.Millisecond},
		}, nil
	}

	rec := do(t, h, http.MethodPost, "/scan",
		`{"username":"alice","timeout":2.5,"tags":"social, coding","site_list":["GitHub"," "],"use_cookies":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 2500*time.Millisecond, got.Timeout)
	assert.Equal(t, []string{"social", "coding"}, got.Tags)
	assert.Equal(t, []string{"GitHub"}, got.SiteList)
	assert.True(t, got.UseCookies)

	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "alice", resp["username"])
	stats := resp["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["checked_sites"])
	assert.EqualValues(t, 1500, stats["duration_ms"])
	filters := resp["filters"].(map[string]any)
	assert.EqualValues(t, 2.5, filters["timeout"])
	found := resp["found"].([]any)
	require.Len(t, found, 1)
	assert.Equal(t, "GitHub", found[0].(map[string]any)["site_name"])
}

func TestScan_Errors(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/scan", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION", decode[errorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPost, "/scan", `{"username":"a","tags":42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	d.scan.ScanFunc = func(context.Context, scan.Input) (*domain.ScanReport, error) {
		return nil, domain.NewValidationErrors([]domain.FieldError{
			{Field: "username", Message: "required"},
			{Field: "top_sites", Message: "must be at least 0"},
		})
	}
	rec = do(t, h, http.MethodPost, "/scan", `{"username":"","top_sites":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorResponse](t, rec)
	require.Len(t, resp.Fields, 2)
	assert.Equal(t, "username", resp.Fields[0].Field)
}

func TestSites(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/sites?tags=social", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Sites []siteResponse `json:"sites"`
		Total int            `json:"total"`
	}](t, rec)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Instagram", resp.Sites[0].Name)

	rec = do(t, h, http.MethodGet, "/sites/tags", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `{"tag":"social","count":2}`)
}

// ---------------------------------------------------------------------------
// Identities and accounts
// ---------------------------------------------------------------------------

func TestIdentities_CreateAndGet(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	id := uuid.New()
	d.identity.CreateIdentityFunc = func(_ context.Context, in identity.CreateIdentityInput) (*domain.Identity, error) {
		return &domain.Identity{ID: id, Name: in.Name, Notes: in.Notes}, nil
	}
	rec := do(t, h, http.MethodPost, "/identities", `{"name":"Alice","notes":"friend"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Alice", decode[identityResponse](t, rec).Name)

	d.identity.GetIdentityFunc = func(_ context.Context, got uuid.UUID) (*domain.Identity, error) {
		return &domain.Identity{ID: got, Name: "Alice"}, nil
	}
	d.identity.ListAccountsFunc = func(context.Context, uuid.UUID) ([]domain.Account, error) {
		return []domain.Account{{ID: uuid.New(), IdentityID: id, Platform: domain.PlatformSpotify, Username: "alice",
			Config: domain.SpotifyConfig{SpDC: "cookie"}}}, nil
	}
	rec = do(t, h, http.MethodGet, "/identities/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"name":"Alice"`)
	assert.Contains(t, body, `"config":{"sp_dc":"cookie"}`)

	rec = do(t, h, http.MethodGet, "/identities/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	d.identity.GetIdentityFunc = func(context.Context, uuid.UUID) (*domain.Identity, error) {
		return nil, fmt.Errorf("identity: %w", domain.ErrNotFound)
	}
	rec = do(t, h, http.MethodGet, "/identities/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIdentities_List(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	accountID := uuid.New()
	d.feed.ListIdentitySummariesFunc = func(context.Context) ([]domain.IdentitySummary, error) {
		return []domain.IdentitySummary{{
			Identity:     domain.Identity{ID: uuid.New(), Name: "Alice"},
			AccountCount: 1,
			LatestEvent:  &domain.Event{ID: uuid.New(), AccountID: &accountID, Type: domain.EventBioChange, Summary: "Bio updated"},
		}}, nil
	}

	rec := do(t, h, http.MethodGet, "/identities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"account_count":1`)
	assert.Contains(t, body, `"event_type":"bio_change"`)
}

func TestLinkAccount(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)
	identityID := uuid.New()

	d.identity.LinkAccountFunc = func(_ context.Context, in identity.LinkAccountInput) (*domain.Account, error) {
		assert.Equal(t, identityID, in.IdentityID)
		assert.JSONEq(t, `{"session_username":"me"}`, string(in.Config))
		return &domain.Account{ID: uuid.New(), IdentityID: in.IdentityID, Platform: in.Platform, Username: in.Username, Enabled: true}, nil
	}
	rec := do(t, h, http.MethodPost, "/identities/"+identityID.String()+"/accounts",
		`{"platform":"instagram","username":"alice","config":{"session_username":"me"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	d.identity.LinkAccountFunc = func(context.Context, identity.LinkAccountInput) (*domain.Account, error) {
		return nil, fmt.Errorf("instagram/alice: %w", domain.ErrDuplicateAccount)
	}
	rec = do(t, h, http.MethodPost, "/identities/"+identityID.String()+"/accounts",
		`{"platform":"instagram","username":"alice"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_ACCOUNT", decode[errorResponse](t, rec).Code)
}

func TestAccounts_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)
	id := uuid.New()

	d.identity.UpdateAccountFunc = func(_ context.Context, in identity.UpdateAccountInput) (*domain.Account, error) {
		require.NotNil(t, in.Enabled)
		return &domain.Account{ID: in.ID, Enabled: *in.Enabled}, nil
	}
	rec := do(t, h, http.MethodPatch, "/accounts/"+id.String(), `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":false`)

	d.identity.DeleteAccountFunc = func(context.Context, uuid.UUID) error { return nil }
	rec = do(t, h, http.MethodDelete, "/accounts/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// ---------------------------------------------------------------------------
// Webhooks and checks
// ---------------------------------------------------------------------------

func TestWebhook(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	accountID := uuid.New()
	var got monitor.WebhookInput
	d.monitor.IngestWebhookFunc = func(_ context.Context, in monitor.WebhookInput) ([]domain.Event, error) {
		got = in
		if in.Username == "ghost" {
			return nil, fmt.Errorf("instagram/ghost: %w", domain.ErrUnknownAccount)
		}
		return []domain.Event{{
			ID: uuid.New(), AccountID: &accountID, Platform: in.Platform, Username: in.Username,
			Type: domain.EventFollowerChange, Summary: "Followers: 100 -> 103 (+3)",
			Payload: json.RawMessage(`{"old":100,"new":103}`), EventTime: in.EventTime,
		}}, nil
	}

	body := `{"username":"alice","state":{"followers":103},"event_time":"2026-05-01T10:00:00+02:00"}`

	tests := []struct {
		name     string
		path     string
		body     string
		secret   string
		wantCode int
		wantErr  string
	}{
		{name: "unknown platform", path: "/webhooks/myspace", body: body, secret: "x", wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
		{name: "platform without secret", path: "/webhooks/spotify", body: body, secret: "x", wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
		{name: "missing secret", path: "/webhooks/instagram", body: body, wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "wrong secret", path: "/webhooks/instagram", body: body, secret: "s3cre", wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "bad event time", path: "/webhooks/instagram", body: `{"username":"alice","state":{},"event_time":"yesterday"}`, secret: "s3cret", wantCode: http.StatusBadRequest, wantErr: "VALIDATION"},
		{name: "body too large", path: "/webhooks/instagram", body: `{"username":"` + strings.Repeat("a", 300) + `"}`, secret: "s3cret", wantCode: http.StatusBadRequest, wantErr: "VALIDATION"},
		{name: "unknown account", path: "/webhooks/instagram", body: `{"username":"ghost","state":{}}`, secret: "s3cret", wantCode: http.StatusNotFound, wantErr: "UNKNOWN_ACCOUNT"},
		{name: "accepted", path: "/webhooks/Instagram", body: body, secret: "s3cret", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.secret != "" {
				headers = []string{WebhookSecretHeader, tt.secret}
			}
			rec := do(t, h, http.MethodPost, tt.path, tt.body, headers...)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode[errorResponse](t, rec).Code)
			}
		})
	}

	assert.Equal(t, domain.PlatformInstagram, got.Platform)
	require.NotNil(t, got.EventTime)
	assert.Equal(t, time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), *got.EventTime)
	require.NotNil(t, got.State.Followers)
	assert.Equal(t, 103, *got.State.Followers)
}

func TestWebhook_ResponseCarriesEvents(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	d.monitor.IngestWebhookFunc = func(_ context.Context, in monitor.WebhookInput) ([]domain.Event, error) {
		return []domain.Event{{ID: uuid.New(), Type: domain.EventFollowerChange, Payload: json.RawMessage(`{"old":100,"new":103}`)}}, nil
	}
	rec := do(t, h, http.MethodPost, "/webhooks/instagram", `{"username":"alice","state":{"followers":103}}`,
		WebhookSecretHeader, "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[struct {
		Events []eventResponse `json:"events"`
		Count  int             `json:"count"`
	}](t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "follower_change", resp.Events[0].EventType)
	assert.JSONEq(t, `{"old":100,"new":103}`, string(resp.Events[0].Payload))
}

func TestCheckTriggers(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)
	known := uuid.New()

	d.monitor.TriggerCheckFunc = func(_ context.Context, id uuid.UUID) error {
		if id != known {
			return fmt.Errorf("get account: %w", domain.ErrNotFound)
		}
		return nil
	}

	rec := do(t, h, http.MethodPost, "/check/"+known.String(), "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, h, http.MethodPost, "/check/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/check-all", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, int32(1), d.monitor.checkAllCalls.Load())
}

// ---------------------------------------------------------------------------
// Feed, stats, notifications, router
// ---------------------------------------------------------------------------

func TestEvents_FilterParsing(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	identityID := uuid.New()
	var got domain.EventFilter
	d.feed.ListEventsFunc = func(_ context.Context, f domain.EventFilter) (domain.EventPage, error) {
		got = f
		return domain.EventPage{Events: []domain.Event{}, Total: 0, Limit: 20, Offset: 40}, nil
	}

	rec := do(t, h, http.MethodGet, "/events?platform=Spotify&identity_id="+identityID.String()+
		"&event_type=new_playlist&since=2026-01-01T00:00:00Z&limit=20&offset=40", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, got.Platform)
	assert.Equal(t, domain.PlatformSpotify, *got.Platform)
	assert.Equal(t, identityID, *got.IdentityID)
	assert.Equal(t, domain.EventNewPlaylist, *got.Type)
	assert.Equal(t, 20, got.Limit)
	assert.Equal(t, 40, got.Offset)
	assert.Nil(t, got.Until)
	assert.JSONEq(t, `{"events":[],"total":0,"limit":20,"offset":40}`, rec.Body.String())
}

func TestEvents_InvalidParams(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/events?platform=myspace&limit=-1&account_id=x", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorResponse](t, rec)
	fields := make([]string, len(resp.Fields))
	for i, f := range resp.Fields {
		fields[i] = f.Field
	}
	assert.ElementsMatch(t, []string{"platform", "limit", "account_id"}, fields)
}

func TestStats(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	d.feed.StatsFunc = func(context.Context) (domain.Stats, error) {
		return domain.Stats{Identities: 2, Accounts: 3, EnabledAccounts: 3, FailingAccounts: 1, Events24h: 4,
			EventsByType: map[domain.EventType]int{domain.EventFollowerChange: 4}}, nil
	}
	rec := do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"identities":2,"accounts":3,"enabled_accounts":3,"failing_accounts":1,"events_24h":4,
		"events_by_type":{"follower_change":4}}`, rec.Body.String())
}

func TestNotificationsTest(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/notifications/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"channels":["discord","ntfy"],"results":{"discord":true,"ntfy":false}}`, rec.Body.String())
}

func TestRouter_NotFoundAndRequestID(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/nope", "", "X-Request-Id", "req-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, rec).Code)

	rec = do(t, h, http.MethodGet, "/check-all", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_InternalErrorHidesDetails(t *testing.T) {
	t.Parallel()
	h, d := newTestRouter(t)

	d.feed.StatsFunc = func(context.Context) (domain.Stats, error) {
		return domain.Stats{}, fmt.Errorf("count identities: %w", bytes.ErrTooLarge)
	}
	rec := do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "too large")
}
