package museum

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 30 * time.Second

// Client fetches skin artwork from the museum CDN.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient constructs a CDN client with a request timeout.
func NewClient() *Client {
	return &Client{
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: "skinpost/1",
	}
}

// Screenshot downloads the raw screenshot bytes for a skin.
func (c *Client) Screenshot(ctx context.Context, skin *Skin) ([]byte, error) {
	url := skin.ScreenshotURL
	if url == "" {
		url = ScreenshotURL(skin.MD5)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch screenshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch screenshot: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}

	return data, nil
}
