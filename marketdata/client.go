package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// getJSON fetches addr and decodes the JSON body into payload. HTTP 429
// and 5xx responses, and transport failures, are reported as transient;
// other non-2xx statuses are definitive.
func getJSON(ctx context.Context, client *http.Client, addr string, payload any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return transient("request failed: %v", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return transient("throttled: %s", resp.Status)
	case resp.StatusCode >= 500:
		return transient("server error: %s", resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNoData, resp.Status)
	case resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transient("reading response: %v", err)
	}
	if err := json.Unmarshal(body, payload); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
