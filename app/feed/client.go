package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Browser user agent for platforms known to filter bot traffic.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CacheTokens carries the conditional-fetch state stored on a feed row.
type CacheTokens struct {
	ETag         string
	LastModified string
}

// FetchResult is a classified fetch response. NotModified means HTTP
// 304 and an empty body; otherwise Body holds the full response and
// ETag/LastModified the fresh caching tokens.
type FetchResult struct {
	NotModified  bool
	Status       int
	Body         []byte
	ETag         string
	LastModified string
}

// Client performs conditional HTTP fetches of feed documents. It never
// touches the store.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Fetch performs a conditional GET. Caching tokens are sent unless the
// caller forces a full refetch. Transport failures and non-2xx statuses
// are returned as errors; HTTP 304 is a successful NotModified result.
func (c *Client) Fetch(ctx context.Context, url string, kind Kind, tokens CacheTokens, force bool) (*FetchResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req, kind)

	if !force {
		if tokens.ETag != "" {
			req.Header.Set("If-None-Match", tokens.ETag)
		}
		if tokens.LastModified != "" {
			req.Header.Set("If-Modified-Since", tokens.LastModified)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &FetchResult{NotModified: true, Status: http.StatusNotModified}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &FetchResult{
		Status:       resp.StatusCode,
		Body:         body,
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

// setHeaders picks kind-appropriate request headers: YouTube and Reddit
// filter bot user agents, so those get a browser one.
func (c *Client) setHeaders(req *http.Request, kind Kind) {
	switch kind {
	case KindYouTube:
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", "application/atom+xml, application/rss+xml, application/xml, text/xml;q=0.9, */*;q=0.1")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	case KindReddit:
		req.Header.Set("User-Agent", browserUserAgent)
	default:
		req.Header.Set("User-Agent", c.userAgent)
	}
}
