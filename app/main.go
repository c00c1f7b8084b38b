package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/feedstream/feedstream/app/api"
	"github.com/feedstream/feedstream/app/cfg"
	"github.com/feedstream/feedstream/app/database"
	"github.com/feedstream/feedstream/app/feed"
	"github.com/feedstream/feedstream/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown.
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting FeedStream server", "version", appCfg.Version)

	if dir := filepath.Dir(appCfg.DBPath); dir != "." && appCfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)
	metaRepo := database.NewMetaRepository(db)
	readerRepo := database.NewReaderRepository(db)

	fetchTimeout := time.Duration(appCfg.FetchTimeout) * time.Millisecond
	client := feed.NewClient(fetchTimeout, appCfg.UserAgent)
	parser := feed.NewParser()
	normalizer := feed.NewNormalizer()
	icons := feed.NewIconResolver(fetchTimeout)
	ingester := feed.NewIngester(client, parser, normalizer, icons, feedRepo, itemRepo)

	readerTTL := time.Duration(appCfg.ReaderCacheTTL) * time.Hour
	reader := feed.NewReader(fetchTimeout, readerTTL, readerRepo)

	registerSubscriptions(appCfg.SubscriptionsFile, feedRepo)

	events := tasks.NewEvents()
	scheduler := tasks.NewScheduler(db, feedRepo, readerRepo, metaRepo, ingester, events)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "workers", appCfg.MaxConcurrency, "interval", appCfg.SchedulerInterval)

	handler := api.NewHandler(feedRepo, itemRepo, metaRepo, ingester, reader, scheduler, events)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     server,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}

// registerSubscriptions adds feeds from the optional bootstrap file.
// Already-subscribed feeds are left untouched; new ones are picked up
// by the next sync.
func registerSubscriptions(path string, feedRepo database.FeedRepository) {
	if path == "" {
		return
	}

	subscriptions, err := feed.LoadSubscriptions(path)
	if err != nil {
		slog.Warn("Failed to load subscriptions file", "path", path, "error", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	registered := 0
	for _, sub := range subscriptions {
		kind := feed.DetectKind(sub.URL)
		created, err := feedRepo.CreateFeed(sub.URL, string(kind), sub.Title)
		if err != nil {
			slog.Warn("Failed to register subscription", "url", sub.URL, "error", err)
			continue
		}
		if created {
			registered++
		}
	}

	slog.Info("Subscriptions registered", "file", path, "new", registered, "total", len(subscriptions))
}
