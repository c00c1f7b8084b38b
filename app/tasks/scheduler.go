package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/feedstream/feedstream/app/cfg"
	"github.com/feedstream/feedstream/app/database"
	"github.com/feedstream/feedstream/app/feed"
)

// DefaultSyncInterval applies when the sync_interval setting is unset.
const DefaultSyncInterval = time.Hour

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	db          *database.DB
	feedRepo    database.FeedRepository
	readerRepo  database.ReaderCacheRepository
	metaRepo    database.MetaRepository
	ingester    *feed.Ingester
	events      *Events
	interval    time.Duration
	workerCount int
	backupDir   string
	readerTTL   time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(db *database.DB, feedRepo database.FeedRepository,
	readerRepo database.ReaderCacheRepository, metaRepo database.MetaRepository,
	ingester *feed.Ingester, events *Events) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		db:          db,
		feedRepo:    feedRepo,
		readerRepo:  readerRepo,
		metaRepo:    metaRepo,
		ingester:    ingester,
		events:      events,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.MaxConcurrency,
		backupDir:   cfg.BackupDir,
		readerTTL:   time.Duration(cfg.ReaderCacheTTL) * time.Hour,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop cancels the workers and waits for them. The queue is left open
// so an API call racing shutdown fails the enqueue instead of sending
// on a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	// Checked before the send so a stopped scheduler always refuses.
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// tick evaluates sync and maintenance schedules. The two never share a
// task, so a failing backup cannot delay feed refreshes.
func (s *Scheduler) tick() {
	if s.syncDue() {
		if _, err := s.RunSync(false); err != nil {
			slog.Warn("Scheduled sync failed to start", "error", err)
		}
	}

	if s.maintenanceDue() {
		task := NewMaintenanceTask(s.db, s.readerRepo, s.metaRepo, s.backupDir, s.readerTTL)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue MaintenanceTask", "error", err)
		}
	}
}

// RunSync refreshes every subscribed feed through the worker pool and
// returns the number of feeds enqueued. The sync timestamp is persisted
// before the first task runs, so a crash mid-batch delays the next sync
// instead of doubling it.
func (s *Scheduler) RunSync(force bool) (int, error) {
	urls, err := s.feedRepo.ListFeedURLs()
	if err != nil {
		return 0, fmt.Errorf("failed to list feeds: %w", err)
	}

	now := time.Now().UTC()
	if err := s.metaRepo.Set(database.MetaLastGlobalSync, now.Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("failed to record sync timestamp: %w", err)
	}

	if len(urls) == 0 {
		slog.Debug("No feeds subscribed, nothing to sync")
		return 0, nil
	}

	slog.Info("Sync started", "feeds", len(urls), "force", force)
	s.events.Publish(Event{Type: EventSyncStarted, Total: len(urls)})

	batch := &batchProgress{total: len(urls)}
	enqueued := 0
	for _, url := range urls {
		task := NewRefreshFeedTask(url, s.ingester, s.events, force, batch)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue RefreshFeedTask", "feed", url, "error", err)
			// The skipped feed still advances the batch; if it was the
			// last one the finished event must fire here.
			if done := int(batch.done.Add(1)); done == batch.total {
				s.events.Publish(Event{Type: EventSyncFinished, Total: batch.total, Done: done})
			}
			continue
		}
		enqueued++
	}

	return enqueued, nil
}

func (s *Scheduler) syncDue() bool {
	value, err := s.metaRepo.Get(database.MetaSyncInterval)
	if err != nil {
		slog.Warn("Failed to read sync interval", "error", err)
		return false
	}

	interval, err := ParseSyncInterval(value)
	if err != nil {
		slog.Warn("Invalid sync interval setting", "value", value, "error", err)
		return false
	}
	if interval == 0 {
		return false
	}

	lastSync, err := s.metaRepo.Get(database.MetaLastGlobalSync)
	if err != nil {
		slog.Warn("Failed to read last sync timestamp", "error", err)
		return false
	}
	if lastSync == "" {
		return true
	}

	last, err := time.Parse(time.RFC3339, lastSync)
	if err != nil {
		return true
	}

	return time.Since(last) >= interval
}

// maintenanceDue reports whether the daily housekeeping has not yet run
// today (UTC).
func (s *Scheduler) maintenanceDue() bool {
	lastBackup, err := s.metaRepo.Get(database.MetaLastAutoBackup)
	if err != nil {
		slog.Warn("Failed to read last backup timestamp", "error", err)
		return false
	}
	if lastBackup == "" {
		return true
	}

	last, err := time.Parse(time.RFC3339, lastBackup)
	if err != nil {
		return true
	}

	return last.UTC().Format(time.DateOnly) != time.Now().UTC().Format(time.DateOnly)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed",
			"worker_id", workerID,
			"type", string(task.GetType()),
			"id", task.GetID(),
			"feed", task.GetFeedURL(),
			"error", err)
	}
}

// ParseSyncInterval parses the sync_interval setting: "off" disables
// scheduled syncs (returned as 0), otherwise the value is a positive
// integer with an m, h or d suffix. An empty value means the default.
func ParseSyncInterval(value string) (time.Duration, error) {
	value = strings.TrimSpace(strings.ToLower(value))

	switch value {
	case "":
		return DefaultSyncInterval, nil
	case "off":
		return 0, nil
	}

	if len(value) < 2 {
		return 0, fmt.Errorf("invalid sync interval %q", value)
	}

	unit := value[len(value)-1]
	count, err := strconv.Atoi(value[:len(value)-1])
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("invalid sync interval %q", value)
	}

	switch unit {
	case 'm':
		return time.Duration(count) * time.Minute, nil
	case 'h':
		return time.Duration(count) * time.Hour, nil
	case 'd':
		return time.Duration(count) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid sync interval unit %q", value)
	}
}
