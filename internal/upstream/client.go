// Package upstream provides a resilient HTTP client for the external feeds
// the service depends on (element sets, crew roster, live position).
//
// Every feed call goes through a per-source circuit breaker so a dead
// upstream fails fast instead of tying up request handlers in timeouts.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kemski/iss-position-checker/internal/metrics"
)

// maxBodyBytes bounds feed responses. The largest payload we consume
// (the crew roster) is a few KB; 5 MB leaves generous headroom.
const maxBodyBytes = 5 * 1024 * 1024

// ErrUpstream wraps any failure talking to a feed, including an open
// circuit breaker. Handlers map it to 502.
var ErrUpstream = errors.New("upstream feed failure")

// Client is a named feed client with a timeout and a circuit breaker.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// New creates a Client for one feed. The name tags log lines, metrics,
// and the breaker.
func New(name string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(n string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"component", "upstream",
				"source", n,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &Client{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// GetJSON fetches url and decodes the response body into v.
// All failures, including a rejected call on an open breaker, are wrapped
// in ErrUpstream.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %v", ErrUpstream, c.name, err)
	}
	return nil
}

// Get fetches url through the circuit breaker and returns the raw body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.doGet(ctx, url)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "open"
		}
		metrics.RecordUpstreamFetch(c.name, outcome)
		c.logger.Warn("upstream fetch failed",
			"component", "upstream",
			"source", c.name,
			"url", url,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, c.name, err)
	}
	metrics.RecordUpstreamFetch(c.name, "ok")
	return result.([]byte), nil
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", maxBodyBytes)
	}
	return body, nil
}
