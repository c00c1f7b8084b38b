package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedstream/feedstream/app/database"
)

// Reader serves reader-view content for article URLs, backed by a
// persistent cache so each page is fetched and extracted at most once
// per cache lifetime.
type Reader struct {
	httpClient *http.Client
	extractor  *ContentExtractor
	cache      database.ReaderCacheRepository
	ttl        time.Duration
}

func NewReader(timeout time.Duration, ttl time.Duration, cache database.ReaderCacheRepository) *Reader {
	return &Reader{
		httpClient: &http.Client{Timeout: timeout},
		extractor:  NewContentExtractor(),
		cache:      cache,
		ttl:        ttl,
	}
}

// Get returns the extracted article for the URL, from cache when a
// fresh entry exists.
func (r *Reader) Get(ctx context.Context, pageURL string) (*database.ReaderEntry, error) {
	cached, err := r.cache.Get(pageURL)
	if err != nil {
		return nil, err
	}
	if cached != nil && time.Since(cached.UpdatedAt) < r.ttl {
		return cached, nil
	}

	body, err := r.fetch(ctx, pageURL)
	if err != nil {
		// A stale cache entry beats a hard failure.
		if cached != nil {
			slog.Debug("Serving stale reader entry", "url", pageURL, "error", err)
			return cached, nil
		}
		return nil, err
	}

	extracted, err := r.extractor.Run(body, pageURL)
	if err != nil {
		if cached != nil {
			return cached, nil
		}
		return nil, err
	}

	entry := database.ReaderEntry{
		URL:         pageURL,
		Title:       extracted.Title,
		Byline:      extracted.Byline,
		Excerpt:     extracted.Excerpt,
		SiteName:    extracted.SiteName,
		ImageURL:    extracted.ImageURL,
		ContentHTML: extracted.ContentHTML,
	}

	if err := r.cache.Upsert(entry); err != nil {
		slog.Warn("Failed to cache reader entry", "url", pageURL, "error", err)
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	return &entry, nil
}

func (r *Reader) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
