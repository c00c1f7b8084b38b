package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ReaderRepo caches extracted reader-view content per article URL.
type ReaderRepo struct {
	db *DB
}

var _ ReaderCacheRepository = (*ReaderRepo)(nil)

func NewReaderRepository(db *DB) *ReaderRepo {
	return &ReaderRepo{db: db}
}

func (r *ReaderRepo) Get(url string) (*ReaderEntry, error) {
	var entry ReaderEntry
	var createdAt, updatedAt string
	err := r.db.QueryRow(`
		SELECT url, COALESCE(title, ''), COALESCE(byline, ''), COALESCE(excerpt, ''),
		       COALESCE(site_name, ''), COALESCE(image_url, ''), content_html, created_at, updated_at
		FROM reader_cache
		WHERE url = ?
	`, url).Scan(
		&entry.URL, &entry.Title, &entry.Byline, &entry.Excerpt,
		&entry.SiteName, &entry.ImageURL, &entry.ContentHTML, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reader cache entry: %w", err)
	}

	entry.CreatedAt = parseTime(createdAt)
	entry.UpdatedAt = parseTime(updatedAt)

	return &entry, nil
}

func (r *ReaderRepo) Upsert(entry ReaderEntry) error {
	now := fmtTime(time.Now())
	_, err := r.db.Exec(`
		INSERT INTO reader_cache (url, title, byline, excerpt, site_name, image_url, content_html, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			byline = excluded.byline,
			excerpt = excluded.excerpt,
			site_name = excluded.site_name,
			image_url = excluded.image_url,
			content_html = excluded.content_html,
			updated_at = excluded.updated_at
	`, entry.URL, entry.Title, entry.Byline, entry.Excerpt,
		entry.SiteName, entry.ImageURL, entry.ContentHTML, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert reader cache entry: %w", err)
	}

	return nil
}

// PurgeOlderThan removes cache rows last updated before the cutoff.
func (r *ReaderRepo) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM reader_cache WHERE updated_at < ?`, fmtTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge reader cache: %w", err)
	}

	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return purged, nil
}
