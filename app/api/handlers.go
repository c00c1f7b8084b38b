package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedstream/feedstream/app/database"
	"github.com/feedstream/feedstream/app/feed"
	"github.com/feedstream/feedstream/app/tasks"
)

func NewHandler(feedRepo database.FeedRepository, itemRepo database.ItemRepository,
	metaRepo database.MetaRepository, ingester *feed.Ingester, reader *feed.Reader,
	scheduler tasks.TaskSchedulerInterface, events *tasks.Events) *Handler {
	return &Handler{
		feedRepo:  feedRepo,
		itemRepo:  itemRepo,
		metaRepo:  metaRepo,
		ingester:  ingester,
		reader:    reader,
		scheduler: scheduler,
		events:    events,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	feedCount, err := h.feedRepo.GetFeedCount()
	if err != nil {
		slog.Error("Database error", "operation", "get_feed_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, unread, starred, err := h.itemRepo.GetItemStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_item_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feedCount,
		"items": gin.H{
			"total":   total,
			"unread":  unread,
			"starred": starred,
		},
	})
}

// CreateFeed subscribes a new feed and runs its first refresh inline so
// the response carries the fetched title and item counts.
func (h *Handler) CreateFeed(c *gin.Context) {
	var req createFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed url"})
		return
	}

	feedURL, err := url.Parse(req.URL)
	if err != nil || feedURL.Scheme == "" || feedURL.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feed url"})
		return
	}

	kind := feed.DetectKind(req.URL)

	created, err := h.feedRepo.CreateFeed(req.URL, string(kind), req.Title)
	if err != nil {
		slog.Error("Database error", "operation", "create_feed", "feed", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"error": "Feed already subscribed"})
		return
	}

	outcome := h.ingester.Run(c.Request.Context(), req.URL, true)

	c.JSON(http.StatusCreated, gin.H{
		"created": true,
		"outcome": outcome,
	})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	records, err := h.feedRepo.ListFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	feeds := make([]FeedResponse, 0, len(records))
	for _, record := range records {
		resp := feedResponse(record)

		if count, err := h.itemRepo.GetItemCount(record.URL); err == nil {
			resp.ItemCount = count
		}
		if unread, err := h.itemRepo.GetUnreadCount(record.URL); err == nil {
			resp.UnreadCount = unread
		}

		feeds = append(feeds, resp)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

// UpdateFeed changes the feed's custom title. An empty title clears the
// override so the fetched title shows again.
func (h *Handler) UpdateFeed(c *gin.Context) {
	feedURL := c.Query("url")
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	var req updateFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing title field"})
		return
	}

	record, err := h.feedRepo.GetFeed(feedURL)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", feedURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return
	}

	if err := h.feedRepo.UpdateFeedCustomTitle(feedURL, *req.Title); err != nil {
		slog.Error("Database error", "operation", "update_feed_title", "feed", feedURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	record.CustomTitle = *req.Title
	c.JSON(http.StatusOK, feedResponse(*record))
}

// DeleteFeed removes a feed and all of its items.
func (h *Handler) DeleteFeed(c *gin.Context) {
	feedURL := c.Query("url")
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	record, err := h.feedRepo.GetFeed(feedURL)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", feedURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return
	}

	if err := h.feedRepo.DeleteFeed(feedURL); err != nil {
		slog.Error("Database error", "operation", "delete_feed", "feed", feedURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RefreshFeed refreshes a single subscribed feed inline and returns the
// refresh outcome.
func (h *Handler) RefreshFeed(c *gin.Context) {
	feedURL := c.Query("url")
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	record, err := h.feedRepo.GetFeed(feedURL)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", feedURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return
	}

	force := c.Query("force") == "true"
	outcome := h.ingester.Run(c.Request.Context(), feedURL, force)

	c.JSON(http.StatusOK, outcome)
}

// RefreshAll starts a full sync through the scheduler's worker pool and
// returns immediately; progress is observable on the events endpoint.
func (h *Handler) RefreshAll(c *gin.Context) {
	force := c.Query("force") == "true"

	enqueued, err := h.scheduler.RunSync(force)
	if err != nil {
		slog.Error("Failed to start sync", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start sync"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"started": true,
		"feeds":   enqueued,
	})
}

// RefreshEvents streams sync progress as server-sent events until the
// client disconnects.
func (h *Handler) RefreshEvents(c *gin.Context) {
	ch, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) ListItems(c *gin.Context) {
	query := database.ItemQuery{
		FeedURL:     c.Query("feed"),
		UnreadOnly:  c.Query("unread") == "true",
		StarredOnly: c.Query("starred") == "true",
	}

	if limit := c.Query("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			query.Limit = parsed
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if parsed, err := strconv.Atoi(offset); err == nil {
			query.Offset = parsed
		}
	}

	records, err := h.itemRepo.GetItems(query)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]ItemResponse, 0, len(records))
	for _, record := range records {
		items = append(items, itemResponse(record))
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// UpdateItem applies user-state changes (read, starred, playback
// position) to a stored item.
func (h *Handler) UpdateItem(c *gin.Context) {
	id := c.Param("id")

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.IsRead == nil && req.IsStarred == nil && req.PlaybackPosition == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	err := h.itemRepo.UpdateItemState(id, database.ItemStateUpdate{
		IsRead:           req.IsRead,
		IsStarred:        req.IsStarred,
		PlaybackPosition: req.PlaybackPosition,
	})
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "update_item", "item", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	item, err := h.itemRepo.GetItem(id)
	if err != nil || item == nil {
		c.JSON(http.StatusOK, gin.H{"updated": true})
		return
	}

	c.JSON(http.StatusOK, itemResponse(*item))
}

func (h *Handler) DeleteItem(c *gin.Context) {
	id := c.Param("id")

	item, err := h.itemRepo.GetItem(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_item", "item", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	if err := h.itemRepo.DeleteItem(id); err != nil {
		slog.Error("Database error", "operation", "delete_item", "item", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) GetSetting(c *gin.Context) {
	key := c.Param("key")

	value, err := h.metaRepo.Get(key)
	if err != nil {
		slog.Error("Database error", "operation", "get_setting", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// PutSetting stores a settings value. The sync interval is validated so
// a bad value cannot silently disable syncing.
func (h *Handler) PutSetting(c *gin.Context) {
	key := c.Param("key")

	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if key == database.MetaSyncInterval {
		if _, err := tasks.ParseSyncInterval(req.Value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.metaRepo.Set(key, req.Value); err != nil {
		slog.Error("Database error", "operation", "put_setting", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

// GetReader returns the reader-view extraction for an article URL,
// fetching and caching it on first request.
func (h *Handler) GetReader(c *gin.Context) {
	pageURL := c.Query("url")
	if pageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid url parameter"})
		return
	}

	entry, err := h.reader.Get(c.Request.Context(), pageURL)
	if err != nil {
		slog.Error("Reader extraction failed", "url", pageURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to extract content"})
		return
	}

	c.JSON(http.StatusOK, readerResponse(*entry))
}
