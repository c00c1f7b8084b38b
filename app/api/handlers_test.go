package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedstream/feedstream/app/database"
	"github.com/feedstream/feedstream/app/feed"
	"github.com/feedstream/feedstream/app/tasks"
)

type stubScheduler struct {
	syncCalls int
	lastForce bool
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}

func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error { return nil }
func (s *stubScheduler) RunSync(force bool) (int, error) {
	s.syncCalls++
	s.lastForce = force
	return 2, nil
}

type testEnv struct {
	router    *gin.Engine
	feedRepo  *database.FeedRepo
	itemRepo  *database.ItemRepo
	scheduler *stubScheduler
}

func newTestEnv(t *testing.T, apiKey string) *testEnv {
	t.Helper()

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)
	metaRepo := database.NewMetaRepository(db)
	readerRepo := database.NewReaderRepository(db)

	ingester := feed.NewIngester(
		feed.NewClient(5*time.Second, "TestAgent/1.0"),
		feed.NewParser(),
		feed.NewNormalizer(),
		feed.NewIconResolver(5*time.Second),
		feedRepo,
		itemRepo,
	)
	reader := feed.NewReader(5*time.Second, time.Hour, readerRepo)

	scheduler := &stubScheduler{}
	events := tasks.NewEvents()

	handler := NewHandler(feedRepo, itemRepo, metaRepo, ingester, reader, scheduler, events)
	router := NewServer(handler, apiKey)

	return &testEnv{router: router, feedRepo: feedRepo, itemRepo: itemRepo, scheduler: scheduler}
}

func newFeedServer(t *testing.T, itemCount int) *httptest.Server {
	t.Helper()

	items := ""
	for i := 1; i <= itemCount; i++ {
		items += fmt.Sprintf(`
    <item>
      <title>Item %d</title>
      <link>https://example.com/item%d</link>
      <guid>item-%d</guid>
      <pubDate>Mon, 03 Jul 2023 1%d:00:00 GMT</pubDate>
    </item>`, i, i, i, i)
	}

	xml := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test</description>` + items + `
  </channel>
</rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(xml))
	}))
	t.Cleanup(server.Close)

	return server
}

func doRequest(env *testEnv, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestCreateFeedEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	server := newFeedServer(t, 2)

	body := fmt.Sprintf(`{"url": %q, "title": "My Feed"}`, server.URL)
	w := doRequest(env, http.MethodPost, "/api/feeds", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got: %d (%s)", w.Code, w.Body.String())
	}

	var resp struct {
		Created bool                `json:"created"`
		Outcome feed.RefreshOutcome `json:"outcome"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Created {
		t.Error("Expected created true")
	}
	if resp.Outcome.NewItems != 2 {
		t.Errorf("Expected 2 new items from inline refresh, got: %d", resp.Outcome.NewItems)
	}

	// Duplicate subscription conflicts.
	w = doRequest(env, http.MethodPost, "/api/feeds", body)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate, got: %d", w.Code)
	}
}

func TestCreateFeedResolvesIcon(t *testing.T) {
	env := newTestEnv(t, "")
	server := newFeedServer(t, 1)

	w := doRequest(env, http.MethodPost, "/api/feeds", fmt.Sprintf(`{"url": %q}`, server.URL))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got: %d (%s)", w.Code, w.Body.String())
	}

	record, err := env.feedRepo.GetFeed(server.URL)
	if err != nil || record == nil {
		t.Fatalf("Expected feed record, got: %v, %v", record, err)
	}
	if record.IconURL == "" {
		t.Error("Expected icon resolved during the inline refresh")
	}
}

func TestCreateFeedValidation(t *testing.T) {
	env := newTestEnv(t, "")

	if w := doRequest(env, http.MethodPost, "/api/feeds", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing url, got: %d", w.Code)
	}
	if w := doRequest(env, http.MethodPost, "/api/feeds", `{"url": "not a url"}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid url, got: %d", w.Code)
	}
}

func TestListFeedsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	server := newFeedServer(t, 3)

	doRequest(env, http.MethodPost, "/api/feeds", fmt.Sprintf(`{"url": %q}`, server.URL))

	w := doRequest(env, http.MethodGet, "/api/feeds", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var resp struct {
		Feeds []FeedResponse `json:"feeds"`
		Total int            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Feeds) != 1 {
		t.Fatalf("Expected 1 feed, got: %d", resp.Total)
	}

	f := resp.Feeds[0]
	if f.Title != "Test Feed" {
		t.Errorf("Expected fetched title, got: %s", f.Title)
	}
	if f.ItemCount != 3 {
		t.Errorf("Expected item count 3, got: %d", f.ItemCount)
	}
	if f.UnreadCount != 3 {
		t.Errorf("Expected unread count 3, got: %d", f.UnreadCount)
	}
}

func TestUpdateAndDeleteFeedEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	server := newFeedServer(t, 1)

	doRequest(env, http.MethodPost, "/api/feeds", fmt.Sprintf(`{"url": %q}`, server.URL))

	path := "/api/feeds?url=" + server.URL
	w := doRequest(env, http.MethodPatch, path, `{"title": "Renamed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", w.Code, w.Body.String())
	}

	var updated FeedResponse
	json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.DisplayTitle != "Renamed" {
		t.Errorf("Expected renamed display title, got: %s", updated.DisplayTitle)
	}

	w = doRequest(env, http.MethodDelete, path, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	record, _ := env.feedRepo.GetFeed(server.URL)
	if record != nil {
		t.Error("Expected feed deleted")
	}

	// Deleting again is a 404.
	w = doRequest(env, http.MethodDelete, path, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing feed, got: %d", w.Code)
	}
}

func TestRefreshFeedEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	server := newFeedServer(t, 2)

	doRequest(env, http.MethodPost, "/api/feeds", fmt.Sprintf(`{"url": %q}`, server.URL))

	w := doRequest(env, http.MethodPost, "/api/feeds/refresh?url="+server.URL, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var outcome feed.RefreshOutcome
	json.Unmarshal(w.Body.Bytes(), &outcome)
	if outcome.NewItems != 0 {
		t.Errorf("Expected no new items on re-refresh, got: %d", outcome.NewItems)
	}
	if outcome.TotalItemsStored != 2 {
		t.Errorf("Expected 2 stored items, got: %d", outcome.TotalItemsStored)
	}

	w = doRequest(env, http.MethodPost, "/api/feeds/refresh?url=https://unknown.example.com/rss", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unsubscribed feed, got: %d", w.Code)
	}
}

func TestRefreshAllEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	w := doRequest(env, http.MethodPost, "/api/refresh?force=true", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got: %d", w.Code)
	}
	if env.scheduler.syncCalls != 1 {
		t.Errorf("Expected sync started, got %d calls", env.scheduler.syncCalls)
	}
	if !env.scheduler.lastForce {
		t.Error("Expected force flag passed through")
	}
}

func TestItemEndpoints(t *testing.T) {
	env := newTestEnv(t, "")
	server := newFeedServer(t, 2)
	doRequest(env, http.MethodPost, "/api/feeds", fmt.Sprintf(`{"url": %q}`, server.URL))

	w := doRequest(env, http.MethodGet, "/api/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var listResp struct {
		Items []ItemResponse `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &listResp)
	if len(listResp.Items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(listResp.Items))
	}

	itemID := listResp.Items[0].ID

	w = doRequest(env, http.MethodPatch, "/api/items/"+itemID, `{"isRead": true, "playbackPosition": 33.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", w.Code, w.Body.String())
	}

	var updated ItemResponse
	json.Unmarshal(w.Body.Bytes(), &updated)
	if !updated.IsRead {
		t.Error("Expected item marked read")
	}
	if updated.PlaybackPosition != 33.5 {
		t.Errorf("Expected playback position 33.5, got: %f", updated.PlaybackPosition)
	}
	if updated.ReadAt == nil {
		t.Error("Expected read_at stamped")
	}

	w = doRequest(env, http.MethodGet, "/api/items?unread=true", "")
	json.Unmarshal(w.Body.Bytes(), &listResp)
	if len(listResp.Items) != 1 {
		t.Errorf("Expected 1 unread item, got: %d", len(listResp.Items))
	}

	w = doRequest(env, http.MethodDelete, "/api/items/"+itemID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	w = doRequest(env, http.MethodDelete, "/api/items/"+itemID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for deleted item, got: %d", w.Code)
	}

	w = doRequest(env, http.MethodPatch, "/api/items/"+itemID, `{"isRead": true}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 updating deleted item, got: %d", w.Code)
	}
}

func TestItemUpdateValidation(t *testing.T) {
	env := newTestEnv(t, "")

	if w := doRequest(env, http.MethodPatch, "/api/items/some-id", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty update, got: %d", w.Code)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t, "")

	w := doRequest(env, http.MethodGet, "/api/settings/sync_interval", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var resp struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Value != "" {
		t.Errorf("Expected empty default, got: %s", resp.Value)
	}

	w = doRequest(env, http.MethodPut, "/api/settings/sync_interval", `{"value": "30m"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", w.Code, w.Body.String())
	}

	w = doRequest(env, http.MethodGet, "/api/settings/sync_interval", "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Value != "30m" {
		t.Errorf("Expected stored value, got: %s", resp.Value)
	}

	// Invalid sync intervals are rejected.
	w = doRequest(env, http.MethodPut, "/api/settings/sync_interval", `{"value": "sometimes"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid interval, got: %d", w.Code)
	}

	// Other keys are stored as-is.
	w = doRequest(env, http.MethodPut, "/api/settings/theme", `{"value": "dark"}`)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for arbitrary key, got: %d", w.Code)
	}
}

func TestHealthAndStats(t *testing.T) {
	env := newTestEnv(t, "")
	server := newFeedServer(t, 2)
	doRequest(env, http.MethodPost, "/api/feeds", fmt.Sprintf(`{"url": %q}`, server.URL))

	w := doRequest(env, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got: %d", w.Code)
	}

	w = doRequest(env, http.MethodGet, "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /stats, got: %d", w.Code)
	}

	var stats struct {
		Feeds int `json:"feeds"`
		Items struct {
			Total  int `json:"total"`
			Unread int `json:"unread"`
		} `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Feeds != 1 {
		t.Errorf("Expected 1 feed, got: %d", stats.Feeds)
	}
	if stats.Items.Total != 2 || stats.Items.Unread != 2 {
		t.Errorf("Expected 2/2 items, got: %d/%d", stats.Items.Total, stats.Items.Unread)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, "secret-key")

	w := doRequest(env, http.MethodGet, "/api/feeds", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid key, got: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got: %d", rec.Code)
	}

	// Health stays public.
	if w := doRequest(env, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("Expected public /health, got: %d", w.Code)
	}
}
