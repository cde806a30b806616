package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// StatusError is the structured failure raised for every non-2xx response.
// It is the sole transport input to the domain error classifiers.
type StatusError struct {
	Status     int
	Body       string
	RetryAfter *time.Duration
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// DoJSON performs the request and decodes a 2xx JSON response into out (out
// may be nil to skip decoding). Non-2xx responses yield a *StatusError with
// the body read best-effort and Retry-After parsed only when numeric.
func DoJSON(ctx context.Context, client *http.Client, method, url string, header http.Header, body io.Reader, out interface{}) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Status: resp.StatusCode}
		// Best-effort body read: a secondary read failure is swallowed.
		if raw, readErr := io.ReadAll(resp.Body); readErr == nil {
			statusErr.Body = string(raw)
		}
		if retryAfter := parseRetryAfter(resp.Header.Get("Retry-After")); retryAfter != nil {
			statusErr.RetryAfter = retryAfter
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseRetryAfter(value string) *time.Duration {
	if value == "" {
		return nil
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return nil
	}
	d := time.Duration(secs) * time.Second
	return &d
}
