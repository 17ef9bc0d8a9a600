// Package upstream holds one client per external data source. Clients are
// thin typed readers: fixed timeout, fixed identifying User-Agent, explicit
// (value, error) results. A zero-length result is a legitimate success;
// only transport and decode problems are errors. Retry and fallback policy
// lives in the resolver, not here.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"cryptotools/internal/metrics"
)

// httpReader wraps the shared request plumbing: timeout-bound client,
// User-Agent header and outcome metrics per source.
type httpReader struct {
	client    *http.Client
	userAgent string
}

func (r *httpReader) getJSON(ctx context.Context, source, rawURL string, query url.Values, v interface{}) error {
	err := r.doGetJSON(ctx, rawURL, query, v)
	metrics.ObserveUpstream(source, err)
	return err
}

func (r *httpReader) doGetJSON(ctx context.Context, rawURL string, query url.Values, v interface{}) error {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	return nil
}
