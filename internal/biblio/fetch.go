// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FetchBaseDelay is the first backoff after a 429 or 503 response. It
// doubles on each further attempt. Tests override this to avoid real sleeps.
var FetchBaseDelay = 2 * time.Second

const (
	fetchMaxRetries = 4

	// maxExportSize bounds how much of a remote export is read.
	maxExportSize = 64 << 20
)

// Load reads an export from a local path or from an http(s) URL. A nil
// client uses http.DefaultClient.
func Load(ctx context.Context, client *http.Client, src string) (Export, error) {
	if !isURL(src) {
		return ReadFile(src)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return Export{}, fmt.Errorf("building request for %s: %w", src, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	resp, err := doWithRetry(ctx, client, req)
	if err != nil {
		return Export{}, fmt.Errorf("fetching biblio %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Export{}, fmt.Errorf("fetching biblio %s: %s", src, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportSize))
	if err != nil {
		return Export{}, fmt.Errorf("reading biblio %s: %w", src, err)
	}

	asJSON := strings.Contains(resp.Header.Get("Content-Type"), "json")
	if u, err := url.Parse(src); err == nil && isJSON(u.Path) {
		asJSON = true
	}
	ex, err := decode(data, asJSON)
	if err != nil {
		return Export{}, fmt.Errorf("parsing biblio %s: %w", src, err)
	}
	return ex, nil
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// doWithRetry retries on 429 and 503 responses. A Retry-After header
// given in seconds overrides the exponential delay. After the last retry
// the final response is returned for the caller to report.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
			return resp, nil
		}
		if attempt >= fetchMaxRetries {
			return resp, nil
		}

		delay := FetchBaseDelay << attempt
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
			delay = time.Duration(secs) * time.Second
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
