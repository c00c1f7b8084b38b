package database

import (
	"database/sql"
	"fmt"
	"time"
)

// FeedRepo handles database operations for feeds
type FeedRepo struct {
	db *DB
}

var _ FeedRepository = (*FeedRepo)(nil)

func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

const feedColumns = `url, kind, COALESCE(title, ''), COALESCE(custom_title, ''), COALESCE(site_url, ''),
	       COALESCE(etag, ''), COALESCE(last_modified, ''), last_checked, COALESCE(last_status, 0),
	       COALESCE(last_error, ''), COALESCE(icon_url, ''), retry_count`

func (r *FeedRepo) scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	var lastChecked sql.NullString
	err := row.Scan(
		&feed.URL, &feed.Kind, &feed.Title, &feed.CustomTitle, &feed.SiteURL,
		&feed.ETag, &feed.LastModified, &lastChecked, &feed.LastStatus,
		&feed.LastError, &feed.IconURL, &feed.RetryCount,
	)
	if err != nil {
		return nil, err
	}
	feed.LastChecked = parseTimePtr(lastChecked)
	return &feed, nil
}

func (r *FeedRepo) GetFeed(url string) (*Feed, error) {
	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE url = ?`, url)

	feed, err := r.scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

func (r *FeedRepo) ListFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`SELECT ` + feedColumns + ` FROM feeds ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := r.scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedRepo) ListFeedURLs() ([]string, error) {
	rows, err := r.db.Query(`SELECT url FROM feeds ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan feed URL: %w", err)
		}
		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed URL rows: %w", err)
	}

	return urls, nil
}

func (r *FeedRepo) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM feeds`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// CreateFeed registers a new subscription. Returns false when the URL is
// already subscribed; the existing row is left untouched.
func (r *FeedRepo) CreateFeed(url, kind, customTitle string) (bool, error) {
	res, err := r.db.Exec(`
		INSERT INTO feeds (url, kind, custom_title)
		VALUES (?, ?, NULLIF(?, ''))
		ON CONFLICT(url) DO NOTHING
	`, url, kind, customTitle)
	if err != nil {
		return false, fmt.Errorf("failed to create feed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}

// UpdateFeedMetadata upserts feed-level metadata after a successful
// fetch and parse. The fetched title never touches custom_title, an
// empty icon URL preserves the stored one, and kind is only ever
// upgraded by the caller (never written back to generic here blindly).
func (r *FeedRepo) UpdateFeedMetadata(url string, meta FeedMetadata, checked time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO feeds (url, kind, title, site_url, etag, last_modified, last_checked, last_status, last_error, icon_url)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, NULL, NULLIF(?, ''))
		ON CONFLICT(url) DO UPDATE SET
			kind = excluded.kind,
			title = excluded.title,
			site_url = excluded.site_url,
			etag = excluded.etag,
			last_modified = excluded.last_modified,
			last_checked = excluded.last_checked,
			last_status = excluded.last_status,
			last_error = NULL,
			icon_url = COALESCE(excluded.icon_url, feeds.icon_url)
	`, url, meta.Kind, meta.Title, meta.SiteURL, meta.ETag, meta.LastModified,
		fmtTime(checked), meta.Status, meta.IconURL)

	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}

	return nil
}

// UpdateFeedChecked records a poll that produced no new content (HTTP 304).
func (r *FeedRepo) UpdateFeedChecked(url string, status int, checked time.Time) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET last_checked = ?, last_status = ? WHERE url = ?
	`, fmtTime(checked), status, url)

	if err != nil {
		return fmt.Errorf("failed to update feed checked time: %w", err)
	}

	return nil
}

// UpdateFeedError records a failed ingestion attempt on the feed row.
func (r *FeedRepo) UpdateFeedError(url string, message string, checked time.Time) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET last_checked = ?, last_status = 0, last_error = ? WHERE url = ?
	`, fmtTime(checked), message, url)

	if err != nil {
		return fmt.Errorf("failed to update feed error: %w", err)
	}

	return nil
}

func (r *FeedRepo) UpdateFeedCustomTitle(url, customTitle string) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET custom_title = NULLIF(?, '') WHERE url = ?
	`, customTitle, url)

	if err != nil {
		return fmt.Errorf("failed to update feed custom title: %w", err)
	}

	return nil
}

// DeleteFeed removes a feed and all of its items in one transaction.
func (r *FeedRepo) DeleteFeed(url string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM items WHERE feed_url = ?`, url); err != nil {
		return fmt.Errorf("failed to delete feed items: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM feeds WHERE url = ?`, url); err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feed deletion: %w", err)
	}

	return nil
}
