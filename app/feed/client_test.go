package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Etag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 03 Jul 2023 10:00:00 GMT")
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "TestAgent/1.0")
	result, err := client.Fetch(context.Background(), server.URL, KindGeneric, CacheTokens{}, false)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.NotModified {
		t.Error("Expected a full response")
	}
	if result.Status != http.StatusOK {
		t.Errorf("Expected status 200, got: %d", result.Status)
	}
	if string(result.Body) != "<rss></rss>" {
		t.Errorf("Expected body preserved, got: %s", result.Body)
	}
	if result.ETag != `"v1"` {
		t.Errorf("Expected etag captured, got: %s", result.ETag)
	}
	if result.LastModified != "Mon, 03 Jul 2023 10:00:00 GMT" {
		t.Errorf("Expected last-modified captured, got: %s", result.LastModified)
	}
}

func TestClientConditionalHeaders(t *testing.T) {
	var gotETag, gotModified string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotETag = r.Header.Get("If-None-Match")
		gotModified = r.Header.Get("If-Modified-Since")
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "TestAgent/1.0")
	tokens := CacheTokens{ETag: `"v1"`, LastModified: "Mon, 03 Jul 2023 10:00:00 GMT"}

	result, err := client.Fetch(context.Background(), server.URL, KindGeneric, tokens, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if gotETag != `"v1"` {
		t.Errorf("Expected If-None-Match sent, got: %s", gotETag)
	}
	if gotModified != "Mon, 03 Jul 2023 10:00:00 GMT" {
		t.Errorf("Expected If-Modified-Since sent, got: %s", gotModified)
	}
	if !result.NotModified {
		t.Error("Expected NotModified result for 304 response")
	}
	if result.Status != http.StatusNotModified {
		t.Errorf("Expected status 304, got: %d", result.Status)
	}
}

func TestClientForceSkipsConditionalHeaders(t *testing.T) {
	var gotETag string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotETag = r.Header.Get("If-None-Match")
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "TestAgent/1.0")
	tokens := CacheTokens{ETag: `"v1"`}

	if _, err := client.Fetch(context.Background(), server.URL, KindGeneric, tokens, true); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if gotETag != "" {
		t.Errorf("Expected no conditional header on forced fetch, got: %s", gotETag)
	}
}

func TestClientErrorStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "TestAgent/1.0")

	if _, err := client.Fetch(context.Background(), server.URL, KindGeneric, CacheTokens{}, false); err == nil {
		t.Error("Expected error for HTTP 500")
	}
}

func TestClientUserAgentPerKind(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "TestAgent/1.0")

	client.Fetch(context.Background(), server.URL, KindGeneric, CacheTokens{}, false)
	if gotAgent != "TestAgent/1.0" {
		t.Errorf("Expected configured user agent for generic feeds, got: %s", gotAgent)
	}

	client.Fetch(context.Background(), server.URL, KindYouTube, CacheTokens{}, false)
	if gotAgent != browserUserAgent {
		t.Errorf("Expected browser user agent for youtube feeds, got: %s", gotAgent)
	}

	client.Fetch(context.Background(), server.URL, KindReddit, CacheTokens{}, false)
	if gotAgent != browserUserAgent {
		t.Errorf("Expected browser user agent for reddit feeds, got: %s", gotAgent)
	}
}
