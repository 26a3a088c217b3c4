// Package gateway implements the uniform client used for outbound calls to
// the directory, memory and automation partners. It owns connection
// pooling, per-call timeout budgets and JSON marshaling. Retry policy is
// deliberately left to callers: a failed call surfaces its status or
// transport error unchanged.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/subthread/companion/logging"
)

// StatusError reports a non-2xx partner response. The body is retained for
// diagnostics but callers should not parse it.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// NewPool builds the process-scoped pooled HTTP client shared by all
// gateway instances. It is created once at process start and closed at
// process stop; per-call deadlines come from contexts, not the client.
func NewPool() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Options configures a Client.
type Options struct {
	// Timeout is the per-call budget applied when the caller's context has
	// no earlier deadline.
	Timeout time.Duration
	// Headers are attached to every request (e.g. a partner API key).
	Headers map[string]string
	// HTTPClient overrides the pooled client (tests, shared pool).
	HTTPClient *http.Client
	// Logger receives per-call latency records.
	Logger logging.Logger
	// Partner names the remote side in log records.
	Partner string
}

// Client is a partner-scoped view over the shared pool. Safe for
// concurrent use by many simultaneous calls.
type Client struct {
	baseURL string
	timeout time.Duration
	headers map[string]string
	http    *http.Client
	logger  logging.Logger
	partner string
}

// New constructs a Client for one partner base URL.
func New(baseURL string, optFns ...func(o *Options)) *Client {
	opts := Options{
		Timeout: 10 * time.Second,
		Logger:  logging.NoOpLogger{},
		Partner: "partner",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = NewPool()
	}
	return &Client{
		baseURL: baseURL,
		timeout: opts.Timeout,
		headers: opts.Headers,
		http:    httpClient,
		logger:  opts.Logger,
		partner: opts.Partner,
	}
}

// Do issues a single JSON request. A nil body sends no payload. The
// response body is returned raw; non-2xx statuses yield a *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("remote call failed", "partner", c.partner, "method", method, "path", path, "error", err.Error())
		return nil, fmt.Errorf("%s request to %s: %w", c.partner, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.partner, err)
	}

	c.logger.Debug("remote call completed",
		"partner", c.partner, "method", method, "path", path,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	data, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.partner, err)
	}
	return nil
}

// Post issues a POST request and decodes the JSON response into out when
// out is non-nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	data, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.partner, err)
	}
	return nil
}

// Close releases idle pooled connections. Call once at process shutdown.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
