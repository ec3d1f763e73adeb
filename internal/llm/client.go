// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/minicode/internal/config"
	"github.com/jeranaias/minicode/internal/logging"
)

// Configuration constants for the chat client.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the default number of attempts for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// defaultRequestInterval and defaultBurst shape the request limiter.
	defaultRequestInterval = 200 * time.Millisecond
	defaultBurst           = 2

	userAgent = "minicode/0.1"
)

// Error variables for common API errors.
var (
	// ErrNotConfigured indicates no API key is available.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyResponse indicates a response without choices.
	ErrEmptyResponse = errors.New("response has no choices")
)

// APIError represents an error from the provider.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
}

// Client is a chat-completions client. It is safe for concurrent use.
type Client struct {
	provider   Provider
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client for model ("<provider>/<model>") with the given
// API key. An empty key is looked up in the provider's environment variable.
func NewClient(model, apiKey string) *Client {
	provider, wireModel := ResolveModel(model)
	return &Client{
		provider:   provider,
		model:      wireModel,
		apiKey:     provider.ResolveAPIKey(apiKey),
		baseURL:    provider.BaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Every(defaultRequestInterval), defaultBurst),
		logger:     slog.Default(),
	}
}

// FromConfig creates a client from the dspy section of the configuration.
func FromConfig(lm config.LMConfig, logger *slog.Logger) (*Client, error) {
	c := NewClient(lm.Model, lm.APIKey).WithLogger(logger)
	if lm.APIBase != "" {
		c.WithBaseURL(lm.APIBase)
	}
	if c.model == "" {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, lm.Model)
	}
	if !c.IsConfigured() {
		return nil, fmt.Errorf("%w: set dspy.api_key or %s", ErrNotConfigured, c.provider.KeyEnv)
	}
	return c, nil
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(strings.TrimSpace(url), "/")
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithMaxRetries sets the maximum number of attempts.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	if maxRetries > 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithRateLimit sets the request limiter; nil disables limiting.
func (c *Client) WithRateLimit(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	c.logger = logging.OrDefault(l)
	return c
}

// Model returns the model name sent on the wire.
func (c *Client) Model() string {
	return c.model
}

// Provider returns the resolved provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured reports whether a request can be made.
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" || !c.provider.KeyRequired
}

// Chat performs a chat completion request. req.Model defaults to the
// client's model. Rate limits and server errors are retried with
// exponential backoff.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if req.Model == "" {
		req.Model = c.model
	}
	req.Stream = false

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			c.logger.Debug("retrying chat request", "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.doRequest(ctx, url, body)
		if err != nil {
			if c.isRetryable(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}
		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request to the chat completions endpoint.
func (c *Client) doRequest(ctx context.Context, url string, body []byte) (*ChatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Headers and bodies may carry the credential or user data; log only status.
	c.logger.Debug("chat response", "status", resp.StatusCode, "duration", time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, data)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// readResponse reads the body up to MaxResponseSize.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse maps a non-200 response to the error taxonomy.
func handleErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{Status: statusCode, Message: strings.TrimSpace(string(body))}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		apiErr.Code = strings.Trim(string(parsed.Error.Code), `"`)
		if apiErr.Code == "" || apiErr.Code == "null" {
			apiErr.Code = parsed.Error.Type
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, apiErr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrModelNotFound, apiErr.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	default:
		return apiErr
	}
}

// isRetryable reports whether err is worth another attempt: rate limits
// and 5xx responses.
func (c *Client) isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	return false
}

// calculateBackoff returns the delay before attempt (1-based retries).
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
