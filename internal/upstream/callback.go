package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/TranslatorSRI/cqs/internal/trapi"
)

const callbackTimeout = 10 * time.Second

// PostCallback delivers an async job's response to the caller-supplied callback URL. Retries
// follow CallbackPolicy: exactly one retry after a fixed 10s pause. Delivery failure after both
// attempts is returned to the caller to log — it never reverts the job's already-persisted
// Completed/Failed status (spec §4.10).
func PostCallback(ctx context.Context, callbackURL string, response trapi.Response) error {
	body, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("upstream: marshal callback response: %w", err)
	}

	client := &http.Client{Timeout: callbackTimeout}

	operation := func() error {
		return deliverCallback(ctx, client, callbackURL, body)
	}

	if err := backoff.Retry(operation, backoff.WithContext(CallbackPolicy(), ctx)); err != nil {
		return fmt.Errorf("upstream: callback delivery failed: %w", err)
	}

	return nil
}

func deliverCallback(ctx context.Context, client *http.Client, callbackURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("callback endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
