// Package probe implements the HTTP Probe Executor: one existence check of one
// username on one catalog site. An Executor is safe for concurrent use.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// maxBodyBytes caps how much of a response body is inspected.
const maxBodyBytes = 1 << 20

// Config configures an Executor.
type Config struct {
	UserAgent string
	// CookiesFile is an optional Netscape cookies.txt, sent only when a scan
	// asks for cookies.
	CookiesFile string
}

// resolver is the subset of *net.Resolver used for dns checks.
type resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Executor performs probes over HTTP (and DNS for domain sites).
type Executor struct {
	follow   *http.Client
	noFollow *http.Client
	// jarFollow and jarNoFollow carry the loaded cookie jar; nil without one.
	jarFollow   *http.Client
	jarNoFollow *http.Client
	resolver    resolver
	userAgent   string
	log         *slog.Logger
}

// New creates an Executor. The per-probe deadline comes from the caller's
// context; the clients themselves have no timeout.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	stopAtRedirect := func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	e := &Executor{
		follow:    &http.Client{Transport: transport},
		noFollow:  &http.Client{Transport: transport, CheckRedirect: stopAtRedirect},
		resolver:  net.DefaultResolver,
		userAgent: cfg.UserAgent,
		log:       logger.With("adapter", "probe"),
	}

	if cfg.CookiesFile != "" {
		jar, n, err := LoadCookieJar(cfg.CookiesFile)
		if err != nil {
			return nil, fmt.Errorf("probe: %w", err)
		}
		e.jarFollow = &http.Client{Transport: transport, Jar: jar}
		e.jarNoFollow = &http.Client{Transport: transport, Jar: jar, CheckRedirect: stopAtRedirect}
		e.log.Info("cookies loaded", slog.String("file", cfg.CookiesFile), slog.Int("count", n))
	}

	return e, nil
}

// Probe checks whether username exists on site. It never blocks past ctx's
// deadline and never returns NotFound for a transport failure.
func (e *Executor) Probe(ctx context.Context, site domain.Site, username string, useCookies bool) domain.ProbeResult {
	profile := site.ProfileURL(username)

	if site.CheckType == domain.CheckDNS {
		return e.probeDNS(ctx, profile)
	}

	client := e.client(site.CheckType == domain.CheckResponseURL, useCookies)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.RequestURL(username), nil)
	if err != nil {
		return transient(profile, 0, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return transient(profile, 0, describeTransportError(ctx, err))
	}
	defer resp.Body.Close()

	if isTransientStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return transient(profile, resp.StatusCode, fmt.Sprintf("status %d", resp.StatusCode))
	}

	switch site.CheckType {
	case domain.CheckMessage:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return transient(profile, resp.StatusCode, describeTransportError(ctx, err))
		}
		return classifyMessage(site, profile, resp.StatusCode, string(body))
	case domain.CheckResponseURL:
		return classifyRedirect(profile, resp.StatusCode)
	default:
		return classifyStatus(profile, resp.StatusCode)
	}
}

// client picks the HTTP client for a probe. response_url checks must see the
// first response, so they never follow redirects.
func (e *Executor) client(stopAtRedirect, useCookies bool) *http.Client {
	withJar := useCookies && e.jarFollow != nil
	switch {
	case stopAtRedirect && withJar:
		return e.jarNoFollow
	case stopAtRedirect:
		return e.noFollow
	case withJar:
		return e.jarFollow
	}
	return e.follow
}

func (e *Executor) probeDNS(ctx context.Context, profile string) domain.ProbeResult {
	host := profile
	if u, err := url.Parse(profile); err == nil && u.Host != "" {
		host = u.Hostname()
	}

	_, err := e.resolver.LookupHost(ctx, host)
	if err == nil {
		return domain.ProbeResult{Status: domain.ProbeFound, URL: profile}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return domain.ProbeResult{Status: domain.ProbeNotFound, URL: profile, Reason: "no such host"}
	}
	return transient(profile, 0, describeTransportError(ctx, err))
}

// isTransientStatus reports statuses that say nothing about the username:
// throttling, bot walls and server errors.
func isTransientStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusUnauthorized,
		code == http.StatusForbidden,
		code == http.StatusRequestTimeout:
		return true
	case code >= 500:
		return true
	}
	return false
}

func classifyStatus(profile string, code int) domain.ProbeResult {
	if code >= 200 && code < 300 {
		return domain.ProbeResult{Status: domain.ProbeFound, URL: profile, HTTPStatus: code}
	}
	return domain.ProbeResult{
		Status:     domain.ProbeNotFound,
		URL:        profile,
		HTTPStatus: code,
		Reason:     fmt.Sprintf("status %d", code),
	}
}

func classifyRedirect(profile string, code int) domain.ProbeResult {
	if code >= 300 && code < 400 {
		return domain.ProbeResult{Status: domain.ProbeNotFound, URL: profile, HTTPStatus: code, Reason: "redirected"}
	}
	return classifyStatus(profile, code)
}

func classifyMessage(site domain.Site, profile string, code int, body string) domain.ProbeResult {
	for _, s := range site.AbsenceStrs {
		if s != "" && strings.Contains(body, s) {
			return domain.ProbeResult{Status: domain.ProbeNotFound, URL: profile, HTTPStatus: code, Reason: "absence marker"}
		}
	}
	if len(site.PresenceStrs) > 0 {
		for _, s := range site.PresenceStrs {
			if s != "" && strings.Contains(body, s) {
				return domain.ProbeResult{Status: domain.ProbeFound, URL: profile, HTTPStatus: code}
			}
		}
		return domain.ProbeResult{Status: domain.ProbeNotFound, URL: profile, HTTPStatus: code, Reason: "presence marker missing"}
	}
	return classifyStatus(profile, code)
}

func transient(profile string, code int, reason string) domain.ProbeResult {
	return domain.ProbeResult{Status: domain.ProbeTransient, URL: profile, HTTPStatus: code, Reason: reason}
}

func describeTransportError(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(ctx.Err(), context.Canceled):
		return "cancelled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return err.Error()
}
