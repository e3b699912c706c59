package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	metrics "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Metrics"
)

const userAgent = "aquarium-dashboard"

// Client talks JSON to the record store. Every verb checks the response status.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a store client rooted at baseURL (for example http://host/api/v1)
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Get fetches path with the given query and decodes the body into out
func (c *Client) Get(ctx context.Context, path string, query *Query, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post creates a record and decodes the created record into out
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put replaces a record and decodes the stored record into out
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete removes a record; out may be nil
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Health checks that the store answers on its device collection
func (c *Client) Health(ctx context.Context) error {
	var devices []json.RawMessage
	if err := c.Get(ctx, "/dispositivos", &Query{Limit: 1}, &devices); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query *Query, body, out interface{}) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStoreRequest(method, err, time.Since(start)) }()

	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return &NetworkError{Op: method, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPStatusError{
			Method:     method,
			URL:        target,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &NetworkError{Op: "decode", URL: target, Err: err}
	}
	return nil
}

// PathEscape escapes a record id for use as a path segment
func PathEscape(id string) string {
	return url.PathEscape(id)
}
