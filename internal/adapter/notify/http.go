package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// HTTPOptions tunes webhook-style channels.
type HTTPOptions struct {
	Client  *http.Client
	Retries uint64
	Backoff time.Duration
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	return o
}

var errRetryable = errors.New("retryable delivery failure")

// post sends the request built by newReq, retrying on network errors, 429 and
// 5xx replies. newReq is called once per attempt.
func post(ctx context.Context, opts HTTPOptions, newReq func(ctx context.Context) (*http.Request, error)) error {
	backoff := retry.WithMaxRetries(opts.Retries, retry.NewExponential(opts.Backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := newReq(ctx)
		if err != nil {
			return err
		}
		resp, err := opts.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(fmt.Errorf("%w: %w", errRetryable, err))
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode))
		default:
			return fmt.Errorf("status %d", resp.StatusCode)
		}
	})
}
