package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// maxErrorBody caps how much of an error response is kept for last_error.
const maxErrorBody = 512

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	BaseURL string
	Timeout time.Duration
	// Retries is the number of re-attempts on network errors and 5xx replies.
	Retries uint64
	// Backoff is the first retry delay; later delays grow exponentially.
	Backoff time.Duration
}

// Bridge checks accounts through an external scraping service:
//
//	POST {base}/check/{platform}  {"username": "...", "config": {...}}
//
// A 200 reply carries a PlatformState. 401/403 map to ErrAuthFailure, 429 to
// ErrRateLimited, anything else to ErrCheckerFailure.
type Bridge struct {
	baseURL    string
	httpClient *http.Client
	retries    uint64
	backoff    time.Duration
	log        *slog.Logger
}

// NewBridge creates a Bridge.
func NewBridge(cfg BridgeConfig, logger *slog.Logger) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	return &Bridge{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retries:    cfg.Retries,
		backoff:    cfg.Backoff,
		log:        logger.With("adapter", "checker_bridge"),
	}
}

type bridgeRequest struct {
	Username string          `json:"username"`
	Config   json.RawMessage `json:"config"`
}

type bridgeError struct {
	Error string `json:"error"`
}

// Check fetches the state of acc from the bridge.
func (b *Bridge) Check(ctx context.Context, acc domain.Account) (*domain.PlatformState, error) {
	cfg, err := domain.EncodePlatformConfig(acc.Config)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode config: %w", err)
	}
	body, err := json.Marshal(bridgeRequest{Username: acc.Username, Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("bridge: encode request: %w", err)
	}
	reqURL := b.baseURL + "/check/" + url.PathEscape(string(acc.Platform))

	b.log.DebugContext(ctx, "bridge request",
		slog.String("platform", string(acc.Platform)),
		slog.String("username", acc.Username),
	)

	var state *domain.PlatformState
	backoff := retry.WithMaxRetries(b.retries, retry.NewExponential(b.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		state, callErr = b.call(ctx, reqURL, body)
		var temp *temporaryError
		if errors.As(callErr, &temp) {
			b.log.WarnContext(ctx, "bridge retry",
				slog.String("platform", string(acc.Platform)),
				slog.String("reason", temp.Error()),
			)
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// temporaryError marks failures worth another attempt.
type temporaryError struct{ err error }

func (e *temporaryError) Error() string { return e.err.Error() }
func (e *temporaryError) Unwrap() error { return e.err }

func (b *Bridge) call(ctx context.Context, reqURL string, body []byte) (*domain.PlatformState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bridge: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("bridge: %w", ctx.Err())
		}
		return nil, &temporaryError{err: fmt.Errorf("bridge: request failed: %w: %w", domain.ErrCheckerFailure, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var state domain.PlatformState
		if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
			return nil, fmt.Errorf("bridge: decode state: %w: %w", domain.ErrCheckerFailure, err)
		}
		return &state, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("bridge: %s: %w", errorText(resp), domain.ErrAuthFailure)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("bridge: %s: %w", errorText(resp), domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, &temporaryError{err: fmt.Errorf("bridge: status %d: %s: %w", resp.StatusCode, errorText(resp), domain.ErrCheckerFailure)}
	default:
		return nil, fmt.Errorf("bridge: status %d: %s: %w", resp.StatusCode, errorText(resp), domain.ErrCheckerFailure)
	}
}

// errorText extracts {"error": "..."} from a reply, falling back to the raw body.
func errorText(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var be bridgeError
	if json.Unmarshal(raw, &be) == nil && be.Error != "" {
		return be.Error
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
