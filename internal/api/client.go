// Package api implements the typed resource clients for the membership and
// alert stores. Every method performs exactly one bearer-authenticated HTTP
// round trip; retries are a caller concern.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"teamup/internal/apperrors"
	"teamup/internal/config"
	"teamup/internal/logging"
)

// Client issues requests against both stores. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     logging.Logger
}

// New creates a Client from configuration.
func New(cfg config.Config, logger logging.Logger) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		logger:     logging.OrNop(logger),
	}
}

// SetHTTPClient substitutes the underlying HTTP client (tests, custom
// transports).
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// errorBody is the shape the stores use for failure details.
type errorBody struct {
	Detail string `json:"detail"`
}

// do performs one round trip and maps the outcome onto the error taxonomy.
// The decoded body (if any) is written into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path, token string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("%s %s failed after %v: %v", method, path, time.Since(start), err)
		return apperrors.FromTransport(op, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("%s: close response body: %v", op, cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		c.logger.Debug("%s %s returned %d: %s", method, path, resp.StatusCode, detail)
		return apperrors.FromStatus(op, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return ""
}
