// Package apifootball adapts the API-Football v3 JSON API into the scanner's
// fixture and odds provider ports.
package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tobikemp/fhscan/internal/telemetry"
)

// Client is a rate-limited API-Football HTTP client. One limiter is shared by
// every caller, so the provider's minimum inter-request spacing holds across
// all scan workers rather than per worker.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewClient builds a client enforcing requestDelay between requests and
// timeout per request.
func NewClient(baseURL, apiKey string, requestDelay, timeout time.Duration) *Client {
	if requestDelay <= 0 {
		requestDelay = time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(requestDelay), 1),
		timeout:    timeout,
	}
}

// envelope is the common API-Football response wrapper.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// get fetches path with query params and unmarshals the response array.
func (c *Client) get(ctx context.Context, path, query string, out any) error {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	telemetry.Metrics.RateLimiterWait.Record(time.Since(waitStart))

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + path
	if query != "" {
		url += "?" + query
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-apisports-key", c.apiKey)

	start := time.Now()
	telemetry.Metrics.ProviderCalls.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.Metrics.ProviderErrors.Inc()
		return fmt.Errorf("http get %s: %w", path, err)
	}
	defer resp.Body.Close()
	telemetry.Metrics.ProviderLatency.Record(time.Since(start))

	if resp.StatusCode != http.StatusOK {
		telemetry.Metrics.ProviderErrors.Inc()
		return fmt.Errorf("apifootball: %s -> status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		telemetry.Metrics.ProviderErrors.Inc()
		return fmt.Errorf("decode %s: %w", path, err)
	}

	// The API reports errors as a non-empty object (and no results).
	if len(env.Errors) > 2 && env.Results == 0 {
		telemetry.Metrics.ProviderErrors.Inc()
		return fmt.Errorf("apifootball: %s: %s", path, string(env.Errors))
	}

	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}

	telemetry.Debugf("apifootball: GET %s -> %d rows (%s)", path, env.Results, time.Since(start))
	return nil
}
