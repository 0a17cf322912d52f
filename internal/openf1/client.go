package openf1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"radiocorpus/internal/logging"
	"radiocorpus/internal/services"
)

const (
	defaultBaseURL     = "https://api.openf1.org/v1"
	defaultHTTPTimeout = 30 * time.Second
	// OpenF1 allows a few requests per second for unauthenticated clients.
	defaultMinInterval = 350 * time.Millisecond
	defaultMaxRetries  = 3
	defaultBackoff     = 2 * time.Second
	maxBackoff         = 30 * time.Second
)

// ErrNoData reports that an endpoint returned no rows for the query.
var ErrNoData = errors.New("openf1: no data")

// Client wraps the OpenF1 REST API.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	channels    map[string]struct{}
	minInterval time.Duration
	maxRetries  int
	backoff     time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{Timeout: timeout}
		}
	}
}

// WithChannels restricts car_data decoding to the named channels. An empty
// list keeps every numeric field.
func WithChannels(channels []string) Option {
	return func(c *Client) {
		if len(channels) == 0 {
			c.channels = nil
			return
		}
		c.channels = make(map[string]struct{}, len(channels))
		for _, ch := range channels {
			if ch = strings.TrimSpace(ch); ch != "" {
				c.channels[ch] = struct{}{}
			}
		}
	}
}

// WithRateLimit sets the minimum spacing between requests.
func WithRateLimit(minInterval time.Duration) Option {
	return func(c *Client) { c.minInterval = minInterval }
}

// WithRetries sets how many times a retriable failure is retried and the
// initial backoff, which doubles per attempt.
func WithRetries(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = retries
		c.backoff = backoff
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for baseURL; an empty baseURL selects the public API.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("openf1: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("openf1: base url %q must be absolute", base)
	}
	c := &Client{
		baseURL:     parsed,
		http:        &http.Client{Timeout: defaultHTTPTimeout},
		minInterval: defaultMinInterval,
		maxRetries:  defaultMaxRetries,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "openf1")
	return c, nil
}

// Ping checks that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("session_key", "latest")
	_, err := c.fetch(ctx, "sessions", params)
	if errors.Is(err, ErrNoData) {
		return nil
	}
	return err
}

// fetch performs a GET and returns the raw rows, retrying retriable failures.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]json.RawMessage, error) {
	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		rows, retry, err := c.fetchOnce(ctx, endpoint, params)
		if err == nil {
			return rows, nil
		}
		if !retry || attempt >= c.maxRetries {
			return nil, err
		}
		logging.WarnWithContext(c.logger, "openf1 request failed; retrying", "openf1_retry",
			logging.String("endpoint", endpoint),
			logging.Int("attempt", attempt+1),
			logging.Duration("backoff", backoff),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "OpenF1 may be rate limiting or briefly unavailable"),
			logging.String(logging.FieldImpact, "request delayed"),
		)
		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, err
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string, params url.Values) ([]json.RawMessage, bool, error) {
	if err := c.wait(ctx); err != nil {
		return nil, false, err
	}

	target := c.baseURL.JoinPath(endpoint)
	target.RawQuery = params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, false, services.Wrap(services.ErrValidation, "openf1", endpoint, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("openf1 request", logging.String("url", target.String()))
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, services.Wrap(services.ErrTransient, "openf1", endpoint, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, services.Wrap(services.ErrNotFound, "openf1", endpoint, query(params), ErrNoData)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		msg := fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
		return nil, retry, services.Wrap(services.ErrTransient, "openf1", endpoint, msg, nil)
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, true, services.Wrap(services.ErrTransient, "openf1", endpoint, "decode response", err)
	}
	if len(rows) == 0 {
		return nil, false, services.Wrap(services.ErrNotFound, "openf1", endpoint, query(params), ErrNoData)
	}
	return rows, false, nil
}

// wait spaces requests at least minInterval apart across goroutines.
func (c *Client) wait(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	next := c.last.Add(c.minInterval)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	c.last = next
	c.mu.Unlock()
	return sleepWithContext(ctx, time.Until(next))
}

func query(params url.Values) string {
	if len(params) == 0 {
		return "no rows"
	}
	return "no rows for " + params.Encode()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
