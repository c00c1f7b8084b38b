package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ItemRepo handles database operations for feed items
type ItemRepo struct {
	db *DB
}

var _ ItemRepository = (*ItemRepo)(nil)

func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

const itemColumns = `id, feed_url, source, COALESCE(title, ''), COALESCE(url, ''), COALESCE(author, ''),
	       COALESCE(summary, ''), COALESCE(content, ''), published, updated,
	       COALESCE(media_thumbnail, ''), media_duration_seconds, COALESCE(external_id, ''),
	       COALESCE(raw_guid, ''), enclosure, created_at, is_read, is_starred, playback_position, read_at`

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var item Item
	var published, createdAt string
	var updated, enclosure, readAt sql.NullString
	var duration sql.NullInt64

	err := row.Scan(
		&item.ID, &item.FeedURL, &item.Source, &item.Title, &item.URL, &item.Author,
		&item.Summary, &item.Content, &published, &updated,
		&item.MediaThumbnail, &duration, &item.ExternalID,
		&item.RawGUID, &enclosure, &createdAt, &item.IsRead, &item.IsStarred,
		&item.PlaybackPosition, &readAt,
	)
	if err != nil {
		return nil, err
	}

	item.Published = parseTime(published)
	item.CreatedAt = parseTime(createdAt)
	item.Updated = parseTimePtr(updated)
	item.ReadAt = parseTimePtr(readAt)

	if duration.Valid {
		d := int(duration.Int64)
		item.MediaDurationSeconds = &d
	}

	if enclosure.Valid && enclosure.String != "" {
		var enc Enclosure
		if err := json.Unmarshal([]byte(enclosure.String), &enc); err == nil {
			item.Enclosure = &enc
		}
	}

	return &item, nil
}

func (r *ItemRepo) GetItem(id string) (*Item, error) {
	row := r.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (r *ItemRepo) GetItems(q ItemQuery) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if q.FeedURL != "" {
		query += ` AND feed_url = ?`
		args = append(args, q.FeedURL)
	}
	if q.UnreadOnly {
		query += ` AND is_read = 0`
	}
	if q.StarredOnly {
		query += ` AND is_starred = 1`
	}

	query += ` ORDER BY published DESC`

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, q.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func (r *ItemRepo) GetItemCount(feedURL string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM items WHERE feed_url = ?`, feedURL).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *ItemRepo) GetUnreadCount(feedURL string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM items WHERE feed_url = ? AND is_read = 0`, feedURL).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

func (r *ItemRepo) GetItemStats() (total, unread, starred int, err error) {
	err = r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN is_starred = 1 THEN 1 ELSE 0 END), 0)
		FROM items
	`).Scan(&total, &unread, &starred)

	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}

	return total, unread, starred, nil
}

// StoreBatch upserts all items of one feed refresh inside a single
// transaction. Existing item ids are snapshotted up front so each entry
// can be classified as new or updated without a per-entry lookup. A
// failing entry is recorded in the result and skipped; it does not abort
// the transaction (one malformed entry must not lose the whole feed).
// The upsert leaves is_read, is_starred, playback_position, read_at and
// created_at untouched, so re-ingestion never resets user state.
func (r *ItemRepo) StoreBatch(feedURL string, items []FeedItem) (BatchResult, error) {
	var result BatchResult

	tx, err := r.db.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing := make(map[string]struct{})
	rows, err := tx.Query(`SELECT id FROM items WHERE feed_url = ?`, feedURL)
	if err != nil {
		return result, fmt.Errorf("failed to snapshot item ids: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return result, fmt.Errorf("failed to scan item id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return result, fmt.Errorf("error iterating item ids: %w", err)
	}
	rows.Close()

	stmt, err := tx.Prepare(`
		INSERT INTO items (
			id, feed_url, source, title, url, author, summary, content,
			published, updated, media_thumbnail, media_duration_seconds,
			external_id, raw_guid, enclosure, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			author = excluded.author,
			summary = excluded.summary,
			content = excluded.content,
			published = excluded.published,
			updated = excluded.updated,
			media_thumbnail = excluded.media_thumbnail,
			media_duration_seconds = excluded.media_duration_seconds,
			external_id = excluded.external_id,
			raw_guid = excluded.raw_guid,
			enclosure = excluded.enclosure
	`)
	if err != nil {
		return result, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()

	for _, item := range items {
		var enclosure any
		if item.Enclosure != nil {
			data, err := json.Marshal(item.Enclosure)
			if err == nil {
				enclosure = string(data)
			}
		}

		var duration any
		if item.MediaDurationSeconds != nil {
			duration = *item.MediaDurationSeconds
		}

		_, err := stmt.Exec(
			item.ID, feedURL, item.Source, item.Title, item.URL, item.Author,
			item.Summary, item.Content, fmtTime(item.Published), fmtTimePtr(item.Updated),
			item.MediaThumbnail, duration, item.ExternalID, item.RawGUID,
			enclosure, fmtTime(now),
		)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{ID: item.ID, Title: item.Title, Err: err.Error()})
			continue
		}

		if _, ok := existing[item.ID]; ok {
			result.Updated++
		} else {
			result.New++
			existing[item.ID] = struct{}{}
		}
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{}, fmt.Errorf("failed to commit item batch: %w", err)
	}

	return result, nil
}

// UpdateItemState applies user-state changes. Marking an item read
// stamps read_at; marking it unread clears it.
func (r *ItemRepo) UpdateItemState(id string, update ItemStateUpdate) error {
	query := `UPDATE items SET id = id`
	var args []any

	if update.IsRead != nil {
		query += `, is_read = ?, read_at = ?`
		if *update.IsRead {
			args = append(args, 1, fmtTime(time.Now()))
		} else {
			args = append(args, 0, nil)
		}
	}
	if update.IsStarred != nil {
		query += `, is_starred = ?`
		args = append(args, boolToInt(*update.IsStarred))
	}
	if update.PlaybackPosition != nil {
		query += `, playback_position = ?`
		args = append(args, *update.PlaybackPosition)
	}

	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *ItemRepo) DeleteItem(id string) error {
	_, err := r.db.Exec(`DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
