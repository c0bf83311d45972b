package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	e, err := New(Config{UserAgent: "coral-test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestProbe_StatusCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "coral-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/alice":
			w.WriteHeader(http.StatusOK)
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	e := newTestExecutor(t)
	site := domain.Site{Name: "T", URL: srv.URL + "/{username}", CheckType: domain.CheckStatusCode}

	tests := []struct {
		username string
		want     domain.ProbeStatus
	}{
		{"alice", domain.ProbeFound},
		{"nobody", domain.ProbeNotFound},
		{"limited", domain.ProbeTransient},
		{"broken", domain.ProbeTransient},
	}
	for _, tt := range tests {
		got := e.Probe(context.Background(), site, tt.username, false)
		if got.Status != tt.want {
			t.Errorf("Probe(%s) = %s (%s), want %s", tt.username, got.Status, got.Reason, tt.want)
		}
	}
}

func TestProbe_Message(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/alice":
			_, _ = io.WriteString(w, `{"user": {"kind": "t2"}}`)
		case "/api/ghost":
			_, _ = io.WriteString(w, `{"error": 404}`)
		default:
			_, _ = io.WriteString(w, `{"user": {}}`)
		}
	}))
	defer srv.Close()

	e := newTestExecutor(t)
	site := domain.Site{
		Name:         "M",
		URL:          "https://example.com/u/{username}",
		ProbeURL:     srv.URL + "/api/{username}",
		CheckType:    domain.CheckMessage,
		AbsenceStrs:  []string{`"error": 404`},
		PresenceStrs: []string{`"kind": "t2"`},
	}

	if got := e.Probe(context.Background(), site, "alice", false); got.Status != domain.ProbeFound || got.URL != "https://example.com/u/alice" {
		t.Errorf("alice: %+v", got)
	}
	if got := e.Probe(context.Background(), site, "ghost", false); got.Status != domain.ProbeNotFound {
		t.Errorf("ghost: %+v", got)
	}
	if got := e.Probe(context.Background(), site, "other", false); got.Status != domain.ProbeNotFound {
		t.Errorf("missing presence marker: %+v", got)
	}
}

func TestProbe_ResponseURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/alice/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}))
	defer srv.Close()

	e := newTestExecutor(t)
	site := domain.Site{Name: "R", URL: srv.URL + "/{username}/", CheckType: domain.CheckResponseURL}

	if got := e.Probe(context.Background(), site, "alice", false); got.Status != domain.ProbeFound {
		t.Errorf("alice: %+v", got)
	}
	if got := e.Probe(context.Background(), site, "ghost", false); got.Status != domain.ProbeNotFound {
		t.Errorf("ghost: %+v", got)
	}
}

func TestProbe_TimeoutIsTransient(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	e := newTestExecutor(t)
	site := domain.Site{Name: "Slow", URL: srv.URL + "/{username}", CheckType: domain.CheckStatusCode}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	got := e.Probe(ctx, site, "alice", false)
	if got.Status != domain.ProbeTransient || got.Reason != "timeout" {
		t.Errorf("got %+v, want transient timeout", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("probe took %s, should resolve near its deadline", elapsed)
	}
}

type fakeResolver struct {
	hosts map[string]bool
	err   error
}

func (f fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.hosts[host] {
		return []string{"192.0.2.1"}, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func TestProbe_DNS(t *testing.T) {
	t.Parallel()

	e := newTestExecutor(t)
	e.resolver = fakeResolver{hosts: map[string]bool{"alice.github.io": true}}
	site := domain.Site{Name: "Pages", URL: "https://{username}.github.io", CheckType: domain.CheckDNS}

	if got := e.Probe(context.Background(), site, "alice", false); got.Status != domain.ProbeFound {
		t.Errorf("alice: %+v", got)
	}
	if got := e.Probe(context.Background(), site, "ghost", false); got.Status != domain.ProbeNotFound {
		t.Errorf("ghost: %+v", got)
	}

	e.resolver = fakeResolver{err: errors.New("server misbehaving")}
	if got := e.Probe(context.Background(), site, "alice", false); got.Status != domain.ProbeTransient {
		t.Errorf("resolver failure: %+v", got)
	}
}

func TestProbe_UsesCookiesOnlyWhenAsked(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err == nil && c.Value == "abc" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	host, _, _ := net.SplitHostPort(srv.Listener.Addr().String())
	path := filepath.Join(t.TempDir(), "cookies.txt")
	content := "# Netscape HTTP Cookie File\n" + host + "\tFALSE\t/\tFALSE\t0\tsessionid\tabc\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write cookies: %v", err)
	}

	e, err := New(Config{CookiesFile: path}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	site := domain.Site{Name: "C", URL: srv.URL + "/{username}", CheckType: domain.CheckStatusCode, RequiresCookies: true}
	if got := e.Probe(context.Background(), site, "alice", false); got.Status != domain.ProbeNotFound {
		t.Errorf("without cookies: %+v", got)
	}
	if got := e.Probe(context.Background(), site, "alice", true); got.Status != domain.ProbeFound {
		t.Errorf("with cookies: %+v", got)
	}
}

func TestProbe_ResponseURLSendsCookies(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err == nil && c.Value == "abc" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/accounts/login/", http.StatusFound)
	}))
	defer srv.Close()

	host, _, _ := net.SplitHostPort(srv.Listener.Addr().String())
	path := filepath.Join(t.TempDir(), "cookies.txt")
	content := "# Netscape HTTP Cookie File\n" + host + "\tFALSE\t/\tFALSE\t0\tsessionid\tabc\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write cookies: %v", err)
	}

	e, err := New(Config{CookiesFile: path}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	site := domain.Site{Name: "RC", URL: srv.URL + "/{username}/", CheckType: domain.CheckResponseURL, RequiresCookies: true}
	if got := e.Probe(context.Background(), site, "alice", false); got.Status != domain.ProbeNotFound {
		t.Errorf("without cookies: %+v", got)
	}
	if got := e.Probe(context.Background(), site, "alice", true); got.Status != domain.ProbeFound {
		t.Errorf("with cookies: %+v", got)
	}
}

func TestLoadCookieJar_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(path, []byte("example.com\tTRUE\t/\n"), 0o600); err != nil {
		t.Fatalf("write cookies: %v", err)
	}
	if _, _, err := LoadCookieJar(path); err == nil {
		t.Fatal("expected error for malformed line")
	}
}
