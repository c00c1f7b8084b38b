package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/feedstream/feedstream/app/database"
)

// MaintenanceTask runs the daily housekeeping pass: a VACUUM INTO
// backup of the database and a purge of expired reader cache rows. It
// never touches feed or item data, so a failing backup cannot affect
// syncing.
type MaintenanceTask struct {
	Task
	db         *database.DB
	readerRepo database.ReaderCacheRepository
	metaRepo   database.MetaRepository
	backupDir  string
	readerTTL  time.Duration
}

func NewMaintenanceTask(db *database.DB, readerRepo database.ReaderCacheRepository,
	metaRepo database.MetaRepository, backupDir string, readerTTL time.Duration) *MaintenanceTask {
	return &MaintenanceTask{
		Task:       NewTask(TaskTypeMaintenance, ""),
		db:         db,
		readerRepo: readerRepo,
		metaRepo:   metaRepo,
		backupDir:  backupDir,
		readerTTL:  readerTTL,
	}
}

func (t *MaintenanceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	now := time.Now().UTC()

	if err := t.backup(ctx, now); err != nil {
		slog.Error("Database backup failed", "error", err)
	} else {
		if err := t.metaRepo.Set(database.MetaLastAutoBackup, now.Format(time.RFC3339)); err != nil {
			slog.Warn("Failed to record backup timestamp", "error", err)
		}
	}

	purged, err := t.readerRepo.PurgeOlderThan(now.Add(-t.readerTTL))
	if err != nil {
		slog.Error("Reader cache purge failed", "error", err)
	} else if purged > 0 {
		slog.Info("Reader cache purged", "removed", purged)
	}

	slog.Info("Task completed", "type", t.GetType(), "duration", t.GetDuration())

	return nil
}

func (t *MaintenanceTask) backup(ctx context.Context, now time.Time) error {
	if t.backupDir == "" {
		slog.Debug("Backup directory not configured, skipping backup")
		return nil
	}

	if err := os.MkdirAll(t.backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	target := filepath.Join(t.backupDir, fmt.Sprintf("feedstream-%s.sqlite", now.Format("2006-01-02")))

	// VACUUM INTO refuses to overwrite an existing file.
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale backup: %w", err)
	}

	if _, err := t.db.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}

	slog.Info("Database backed up", "path", target)

	return nil
}
