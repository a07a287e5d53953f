// Package client implements the rate-limited, validating client for the Nemy
// NEM summary endpoint.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/engine"
)

const (
	// DefaultBaseURL is the RapidAPI gateway for Nemy.
	DefaultBaseURL = "https://nemy.p.rapidapi.com"
	// RapidAPIHost identifies the upstream API to the gateway.
	RapidAPIHost = "nemy.p.rapidapi.com"
	// RequestTimeout bounds connection and response read.
	RequestTimeout = 10 * time.Second
	// SummaryPath is the current-summary endpoint, queried with ?state=<region>.
	SummaryPath = "/NEM/summary/current"
)

// HTTPDoer is the shared transport the client borrows per call.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches and validates the current summary for one region.
type Client struct {
	apiKey  string
	region  core.Region
	http    HTTPDoer
	baseURL string
	timeout time.Duration
	limiter *engine.RateLimiter
	clock   func() time.Time

	// guards the check, call and record sequence
	inflight *semaphore.Weighted
	// guards limiter reads against concurrent Usage calls
	mu sync.Mutex
}

// Option customizes a Client.
type Option func(*Client)

// WithQuotas overrides the per-minute and per-day quotas.
func WithQuotas(perMinute, perDay int) Option {
	return func(c *Client) {
		c.limiter = engine.NewRateLimiter(perMinute, perDay)
	}
}

// WithBaseURL points the client at another gateway.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithClock injects the wall clock used by the ledgers.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithTimeout overrides RequestTimeout. Intended for tests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New creates a client. The region is assumed to be validated by the caller
// that accepted it from user input.
func New(apiKey string, region core.Region, httpClient HTTPDoer, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		region:   region,
		http:     httpClient,
		baseURL:  DefaultBaseURL,
		timeout:  RequestTimeout,
		limiter:  engine.NewRateLimiter(engine.DefaultPerMinute, engine.DefaultPerDay),
		inflight: semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.clock != nil {
		c.limiter.Clock = c.clock
	}
	return c
}

// Region returns the configured region.
func (c *Client) Region() core.Region {
	return c.region
}

// Usage reports the current ledger usage.
func (c *Client) Usage() core.RateLimitUsage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limiter.Usage()
}

// FetchSummary checks local quotas, fetches the current summary and validates
// it. Only a fully successful fetch is recorded in the ledgers.
func (c *Client) FetchSummary(ctx context.Context) (*core.SummaryRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer c.inflight.Release(1)

	if err := c.checkRateLimits(); err != nil {
		return nil, err
	}

	payload, err := c.get(ctx)
	if err != nil {
		return nil, err
	}

	record, err := Validate(payload)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.limiter.Record()
	c.mu.Unlock()
	return record, nil
}

func (c *Client) checkRateLimits() error {
	c.mu.Lock()
	decision := c.limiter.Allow()
	c.mu.Unlock()
	if decision.Allowed {
		return nil
	}
	retryAfter := decision.RetryAfter
	return &RateLimitedError{Scope: decision.Scope, RetryAfter: &retryAfter}
}

func (c *Client) get(ctx context.Context) (map[string]any, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, &TransportError{Cause: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", RapidAPIHost)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, &RateLimitedError{Scope: engine.ScopeRemote}
	default:
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	var payload map[string]any
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		if isTimeout(ctx, reqCtx, err) {
			return nil, &TimeoutError{Timeout: c.timeout, Cause: err}
		}
		return nil, &TransportError{Cause: fmt.Errorf("malformed payload: %w", err)}
	}
	if payload == nil {
		return nil, &TransportError{Cause: errors.New("malformed payload: expected JSON object")}
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err != nil && isTimeout(ctx, reqCtx, err) {
			return nil, &TimeoutError{Timeout: c.timeout, Cause: err}
		}
		return nil, &TransportError{Cause: errors.New("malformed payload: trailing data after JSON object")}
	}
	return payload, nil
}

func (c *Client) endpoint() (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	u := base.JoinPath(SummaryPath)
	query := u.Query()
	query.Set("state", string(c.region))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (c *Client) classify(parent, reqCtx context.Context, err error) error {
	if isTimeout(parent, reqCtx, err) {
		return &TimeoutError{Timeout: c.timeout, Cause: err}
	}
	return &TransportError{Cause: err}
}

// isTimeout distinguishes the request deadline from caller cancellation.
func isTimeout(parent, reqCtx context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
