// Package githubclient has the retrying GitHub REST API client.
//
// The client is the only component allowed to retry. Every logical call is a
// bounded linear loop: attempt, classify the outcome, and either return,
// sleep and retry, or give up with the last classified error.
package githubclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the public GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Default values for the retry policy.
const (
	DefaultMaxAttempts = 5
	DefaultTimeout     = 20 * time.Second

	baseBackoff   = time.Second
	maxBackoff    = 30 * time.Second
	maxServerWait = 60 * time.Second // cap on Retry-After / rate-limit reset sleeps
)

const userAgent = "repopulse/1.0"

// Client issues authenticated reads against the GitHub API. It owns all
// retry, backoff, and rate-limit handling; callers see either a payload or
// one of the typed errors in errors.go.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	maxAttempts int
	gate        limitGate

	// sleep and jitter are swapped out in tests.
	sleep  func(context.Context, time.Duration) error
	jitter func() time.Duration
	now    func() time.Time
}

// limitGate is shared by every call on a client. The rate-limit budget is
// scoped to the credential, so once any call observes a rate-limit response
// the gate pauses all calls on the client until the advertised reset,
// instead of letting concurrent callers burn their attempt budgets against
// a budget that is already exhausted.
type limitGate struct {
	mu          sync.Mutex
	pausedUntil time.Time
}

func (g *limitGate) pause(until time.Time) {
	g.mu.Lock()
	if until.After(g.pausedUntil) {
		g.pausedUntil = until
	}
	g.mu.Unlock()
}

func (g *limitGate) delay(now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pausedUntil.IsZero() {
		return 0
	}
	return g.pausedUntil.Sub(now)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (for GitHub Enterprise or tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithMaxAttempts overrides the attempt budget per logical call.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleepFunc overrides the sleep between attempts (tests use a recorder).
func WithSleepFunc(f func(time.Duration)) Option {
	return func(c *Client) {
		c.sleep = func(ctx context.Context, d time.Duration) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f(d)
			return nil
		}
	}
}

// New creates a Client. An empty token issues unauthenticated requests,
// which GitHub serves with much lower rate limits.
func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		token:       token,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		sleep:       sleepContext,
		jitter:      func() time.Duration { return time.Duration(rand.Int63n(int64(time.Second))) },
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs one logical API call and returns the raw JSON payload.
// It retries transient and rate-limited failures up to the attempt budget
// and returns the last classified error once the budget is exhausted.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		// Block while any call on this client is waiting out a
		// rate-limit window.
		if err := c.pause(ctx, c.gate.delay(c.now())); err != nil {
			return nil, err
		}

		payload, retryIn, err := c.attempt(ctx, path, params, attempt)
		if err == nil {
			return payload, nil
		}

		if terminal, ok := err.(*TerminalError); ok {
			return nil, terminal
		}

		lastErr = err
		if attempt < c.maxAttempts-1 {
			if err := c.pause(ctx, retryIn); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// pause sleeps for d unless the context is canceled first.
func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return c.sleep(ctx, d)
}

// GetJSON performs a Get and unmarshals the payload into v.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, v any) error {
	payload, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("github: %s returned malformed JSON: %w", path, err)
	}
	return nil
}

// attempt performs a single HTTP round trip and classifies the outcome.
// On a retryable failure it also returns how long to sleep before the next
// attempt, honoring server-provided hints before computed backoff.
func (c *Client) attempt(ctx context.Context, path string, params url.Values, attempt int) (json.RawMessage, time.Duration, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, &TerminalError{Path: path, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection and timeout failures are always transient.
		return nil, c.backoff(attempt), &TransientError{Path: path, Attempts: attempt + 1, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if readErr != nil {
			return nil, c.backoff(attempt), &TransientError{Path: path, Attempts: attempt + 1, Err: readErr}
		}
		return json.RawMessage(body), 0, nil

	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, 0, &TerminalError{StatusCode: resp.StatusCode, Path: path, Message: errMessage(body)}

	case resp.StatusCode == http.StatusForbidden:
		if !isRateLimited(resp, body) {
			// Genuine authorization denial.
			return nil, 0, &TerminalError{StatusCode: resp.StatusCode, Path: path, Message: errMessage(body)}
		}
		wait := c.serverWait(resp, attempt)
		c.gate.pause(c.now().Add(wait))
		return nil, wait, &RateLimitedError{Path: path, Attempts: attempt + 1}

	case resp.StatusCode == http.StatusTooManyRequests:
		wait := c.serverWait(resp, attempt)
		c.gate.pause(c.now().Add(wait))
		return nil, wait, &RateLimitedError{Path: path, Attempts: attempt + 1}

	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return nil, c.serverWait(resp, attempt), &TransientError{
			Path:     path,
			Attempts: attempt + 1,
			Err:      fmt.Errorf("status %d", resp.StatusCode),
		}

	default:
		return nil, 0, &TerminalError{StatusCode: resp.StatusCode, Path: path, Message: errMessage(body)}
	}
}

// serverWait computes the sleep before the next attempt. Precedence:
// explicit Retry-After header, then primary rate-limit reset time, then
// exponential backoff. Server hints are capped so a hostile or clock-skewed
// header cannot stall the batch.
func (c *Client) serverWait(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return min(time.Duration(secs)*time.Second, maxServerWait)
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if reset, err := strconv.ParseInt(v, 10, 64); err == nil {
			wait := time.Unix(reset, 0).Sub(c.now())
			if wait < 0 {
				wait = 0
			}
			return min(wait, maxServerWait)
		}
	}
	return c.backoff(attempt)
}

// backoff returns base*2^attempt plus jitter, capped at the backoff ceiling.
// The shift is clamped so a large attempt count cannot overflow the duration
// into a negative, zero-length sleep.
func (c *Client) backoff(attempt int) time.Duration {
	d := maxBackoff
	if attempt < 6 {
		d = min(baseBackoff<<attempt, maxBackoff)
	}
	d += c.jitter()
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// isRateLimited classifies a 403: rate limited only when the remaining
// budget header is zero, a Retry-After header is present, or the body
// message mentions rate limiting.
func isRateLimited(resp *http.Response, body []byte) bool {
	if resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	if resp.Header.Get("Retry-After") != "" {
		return true
	}
	return strings.Contains(strings.ToLower(errMessage(body)), "rate limit")
}

// errMessage extracts the "message" field from a GitHub error body, falling
// back to a trimmed snippet of the raw body.
func errMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}

// sleepContext is the production sleeper. A select on the context lets a
// cancellation interrupt even a long server-advised wait.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
