// Package httpclient provides the HTTP fetcher used to stream tabular
// artifacts from the remote store's web locators.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "mlgit/1.0"
)

// Client fetches the content behind a URL.
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// defaultClient implements Client on net/http.
type defaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a Client with the given request timeout. Zero
// selects the default.
func NewDefaultClient(timeout time.Duration) Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &defaultClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get fetches the URL and returns the response body. Non-2xx responses
// become typed HTTPErrors.
func (c *defaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewHTTPError(resp.StatusCode, url, string(body))
	}
	return body, nil
}
