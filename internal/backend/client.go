// Package backend is the REST client for the pet-health backend: pets,
// conversations, chat, symptom prediction and AI diagnosis cases.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"pawcheck/internal/logger"
	"pawcheck/internal/version"
)

// DefaultTimeout is applied to every request unless overridden.
const DefaultTimeout = 30 * time.Second

// MinClientVersionHeader is the response header carrying the oldest client the backend supports.
const MinClientVersionHeader = "X-Min-Client-Version"

const jsonContentType = "application/json"

// Client talks to the pet-health REST backend.
// Every request carries the bearer token from its TokenSource.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	timeout    time.Duration
	logger     *log.Logger

	mu               sync.RWMutex
	minClientVersion string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		timeout: DefaultTimeout,
		logger:  logger.NewStyledLogger("Backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// MinClientVersion returns the last X-Min-Client-Version value seen, or "".
func (c *Client) MinClientVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.minClientVersion
}

// do sends one JSON request and decodes the answer into out (when non-nil).
// A *[]byte out receives the raw body.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	token, err := c.tokens.Token()
	if err != nil {
		c.logger.Warn("Request blocked by credential check", "method", method, "path", path, "error", err)
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", jsonContentType)
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", jsonContentType)
	}

	logger.Request(method, path, "timeout", c.timeout.String(), "has_body", body != nil)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Request completed",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"body_length", len(respBody),
		"duration", time.Since(start).String())

	if v := resp.Header.Get(MinClientVersionHeader); v != "" {
		c.mu.Lock()
		c.minClientVersion = v
		c.mu.Unlock()
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = respBody
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// IsUnauthorized reports whether err should end the user's session.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
