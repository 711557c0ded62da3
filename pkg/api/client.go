// Package api implements the HTTP transport the SDK uses to talk to
// the Keyline frontend API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/keyline-id/keyline-go/pkg/token"
)

const userAgent = "keyline-go/1.0"

// Client issues authenticated requests against a Keyline instance and
// parses resource payloads. It surfaces HTTP status through *Error so
// callers can classify failures for retry purposes.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a structured logger. The default is a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a transport for the given API origin, authenticating
// with the publishable key.
func NewClient(baseURL, key string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		key:     key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateToken performs an authenticated POST against a token-issuing
// path and parses the response into a Token value.
func (c *Client) CreateToken(ctx context.Context, path string, body any) (*token.Token, error) {
	var out token.JSON
	if err := c.Post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return token.FromJSON(out)
}

// Post issues a POST for path and decodes the response into out when
// out is non-nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Get issues a GET for path and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &Error{Status: status, Message: http.StatusText(status)}
	var wire wireError
	if err := json.Unmarshal(data, &wire); err == nil && len(wire.Errors) > 0 {
		if wire.Errors[0].Message != "" {
			apiErr.Message = wire.Errors[0].Message
		}
		apiErr.Code = wire.Errors[0].Code
	}
	return apiErr
}
