package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	headerContentType   = "Content-Type"
	mimeApplicationJSON = "application/json"
)

// Client is an HTTP client for a facilitator service, for resource servers
// that delegate settlement instead of holding an executor key themselves.
type Client struct {
	url        string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a client for the facilitator at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		url:        baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify checks an API key's allowance without moving funds.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	var res VerifyResponse
	status, err := c.post(ctx, "/verify", req, &res)
	if err != nil {
		return nil, err
	}
	res.NotFound = status == http.StatusNotFound
	return &res, nil
}

// Settle asks the facilitator to execute a payment. A failed settlement is
// returned as a response with Success=false, not an error; errors mean the
// facilitator could not be reached or answered with an unexpected status.
func (c *Client) Settle(ctx context.Context, req SettleRequest) (*SettleResponse, error) {
	var res SettleResponse
	if _, err := c.post(ctx, "/settle", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health reports whether the facilitator is reachable and live.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("facilitator unhealthy: %s", resp.Status)
	}
	return nil
}

// post sends a JSON request and decodes the JSON answer. The facilitator
// returns structured bodies on 200, 400, 404 and 500; anything else is an
// error.
func (c *Client) post(ctx context.Context, path string, body, out any) (int, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerContentType, mimeApplicationJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send %s request: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError:
	default:
		return resp.StatusCode, fmt.Errorf("unexpected status from %s: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return resp.StatusCode, nil
}
