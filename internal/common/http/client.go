// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"admission-checker/internal/common/retry"
)

// Client is a thin JSON client used by the smoke tool.
type Client struct {
	httpClient *http.Client
	policy     retry.Policy
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy: retry.Policy{Attempts: 1},
	}
}

// WithRetry returns a copy of the client that retries transport errors.
func (c *Client) WithRetry(p retry.Policy) *Client {
	cp := *c
	cp.policy = p
	return &cp
}

// PostJSON posts body to url and reads the whole response. Non-2xx statuses are
// returned as a Response, not an error.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte) (*Response, error) {
	return retry.Value(ctx, c.policy, func(ctx context.Context) (*Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return &Response{StatusCode: resp.StatusCode, Body: data}, nil
	})
}
