package database

import (
	"database/sql"
	"fmt"
)

// Well-known meta keys.
const (
	MetaSyncInterval   = "sync_interval"
	MetaLastGlobalSync = "last_global_sync"
	MetaLastAutoBackup = "last_auto_backup"
)

// MetaRepo handles the key/value settings table used for scheduler
// bookkeeping (sync interval, last sync, last backup).
type MetaRepo struct {
	db *DB
}

var _ MetaRepository = (*MetaRepo)(nil)

func NewMetaRepository(db *DB) *MetaRepo {
	return &MetaRepo{db: db}
}

// Get returns the stored value, or "" when the key is absent.
func (r *MetaRepo) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta value: %w", err)
	}
	return value, nil
}

func (r *MetaRepo) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)

	if err != nil {
		return fmt.Errorf("failed to set meta value: %w", err)
	}

	return nil
}
