// Package openrouter is a small client for the OpenRouter chat completions
// and model listing endpoints.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// OpenRouter attributes traffic to an app through these headers.
	appReferer = "https://github.com/lorenzotomasdiez/who-am-i"
	appTitle   = "Who Am I?"

	maxRetries = 3
	maxErrBody = 512
)

// APIError is a non-200 reply from OpenRouter.
type APIError struct {
	StatusCode int
	Body       string
	// RetryAfter is the server's requested wait, zero when absent.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when repeated.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RateLimited reports whether OpenRouter throttled the request.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client talks to one OpenRouter-compatible endpoint.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	backoffFunc func(attempt int) time.Duration
	log         *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a gateway or test server. An empty URL
// keeps DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithTimeout bounds every HTTP request, retries included individually.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger logs retries to log.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		backoffFunc: defaultBackoff,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatCompletion requests one completion. Rate limits and server errors are
// retried with exponential backoff.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: encoding request: %w", err)
	}
	var out ChatResponse
	if err := c.call(ctx, http.MethodPost, "/chat/completions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListModels returns the endpoint's model listing.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var out ModelsResponse
	if err := c.call(ctx, http.MethodGet, "/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// call sends method path, retrying temporary API errors, and decodes a 200
// reply into out. Transport errors are returned at once.
func (c *Client) call(ctx context.Context, method, path string, body []byte, out any) error {
	var lastErr *APIError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if lastErr != nil {
			wait := c.backoffFunc(attempt - 1)
			if wait > 0 && lastErr.RetryAfter > wait {
				wait = lastErr.RetryAfter
			}
			c.log.Debug("retrying openrouter request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Int("status", lastErr.StatusCode),
				zap.Duration("wait", wait))
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}

		resp, err := c.send(ctx, method, path, body)
		if err != nil {
			return fmt.Errorf("openrouter: %s %s: %w", method, path, err)
		}
		if resp.StatusCode == http.StatusOK {
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("openrouter: decoding %s reply: %w", path, err)
			}
			return nil
		}

		apiErr := readAPIError(resp)
		if !apiErr.Temporary() {
			return apiErr
		}
		lastErr = apiErr
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", appReferer)
	req.Header.Set("X-Title", appTitle)
	return c.httpClient.Do(req)
}

func readAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
		RetryAfter: retryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// retryAfter parses a Retry-After value given in seconds or as an HTTP date.
func retryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
