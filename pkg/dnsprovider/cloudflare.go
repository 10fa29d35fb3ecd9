package dnsprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the Cloudflare v4 API endpoint.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Record is the provider's view of one DNS record.
type Record struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// APIError is one entry of the provider's error list.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// updateResponse is the provider's standard response envelope.
type updateResponse struct {
	Success bool       `json:"success"`
	Errors  []APIError `json:"errors"`
	Result  Record     `json:"result"`
}

// ProviderError carries the provider's own error payload verbatim so that
// an exhausted retry surfaces exactly what Cloudflare said, not a
// paraphrase.
type ProviderError struct {
	StatusCode int
	Errors     []APIError
	Body       string
}

func (e *ProviderError) Error() string {
	if len(e.Errors) > 0 {
		detail, _ := json.Marshal(e.Errors)
		return fmt.Sprintf("dns provider returned status %d: %s", e.StatusCode, detail)
	}
	return fmt.Sprintf("dns provider returned status %d: %s", e.StatusCode, e.Body)
}

// Client is a thin typed client for the record-update endpoint. It does no
// retrying of its own; the reconciler wraps calls in its retry policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests point it at an httptest
// server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Cloudflare client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateRecordContent issues a partial update (PATCH) setting the record's
// content to the given address, leaving name, TTL and proxying untouched.
// The token is passed per call because the reconciler fetches it from the
// state store on every invocation.
func (c *Client) UpdateRecordContent(ctx context.Context, token, zoneID, recordID, content string) (*Record, error) {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return nil, fmt.Errorf("failed to encode update payload: %w", err)
	}

	url := fmt.Sprintf("%s/zones/%s/dns_records/%s", c.baseURL, zoneID, recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dns update request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dns update response: %w", err)
	}

	var parsed updateResponse
	// A non-JSON body still surfaces through ProviderError below.
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.Success {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Errors:     parsed.Errors,
			Body:       string(body),
		}
	}
	return &parsed.Result, nil
}
