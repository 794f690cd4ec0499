// Package upstream provides the HTTP client CQS uses to POST rendered templates to the
// workflow runner.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/TranslatorSRI/cqs/internal/trapi"
)

const (
	maxRedirects  = 5
	clientTimeout = 900 * time.Second
	maxAttempts   = 3
)

// Client is the single shared HTTP client used for every template POST. It is safe for
// concurrent use by multiple goroutines, matching the "process-wide singleton" shape of
// §5/§9 (HTTP client, DB pool, template registry all lazily initialized once, shared after).
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds the shared client bounded by maxRedirects and clientTimeout, POSTing to
// baseURL + "/query".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: clientTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("upstream: stopped after %d redirects", maxRedirects)
				}

				return nil
			},
		},
	}
}

// PostTemplate POSTs the rendered query to the workflow runner, retrying transport or decode
// failures up to maxAttempts times with a sleep of attempt*15*2 seconds between attempts. A
// non-nil response is always a successfully parsed TRAPI Response; after exhausting retries it
// returns (nil, nil) — failure of a single template branch is never fatal to the pipeline.
func (c *Client) PostTemplate(ctx context.Context, query trapi.Query) (*trapi.Response, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("upstream: marshal query: %w", err)
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.attempt(ctx, body)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		slog.Warn("upstream template POST failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt == maxAttempts {
			break
		}

		sleep := time.Duration(attempt*15*2) * time.Second
		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, nil //nolint:nilnil // exhausted/cancelled retries are non-fatal to the caller
		}
	}

	slog.Error("upstream template POST exhausted retries", slog.String("error", lastErr.Error()))

	return nil, nil //nolint:nilnil // exhausting retries is non-fatal to the outer pipeline
}

func (c *Client) attempt(ctx context.Context, body []byte) (*trapi.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp trapi.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("upstream: decode response: %w", err)
	}

	return &resp, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CallbackPolicy returns the backoff policy for callback delivery: exactly 2 attempts, a fixed
// 10s gap. Kept distinct from the template POST's retry loop above — do not conflate the two
// policies (spec §9).
func CallbackPolicy() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Second), 1)
}
