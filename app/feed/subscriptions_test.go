package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSubscriptions(t *testing.T) {
	content := `feeds:
  - url: https://example.com/rss.xml
    title: Example Blog
  - url: https://www.youtube.com/feeds/videos.xml?channel_id=UC123
  - title: No URL, skipped
`

	path := filepath.Join(t.TempDir(), "subscriptions.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	subscriptions, err := LoadSubscriptions(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(subscriptions) != 2 {
		t.Fatalf("Expected 2 subscriptions, got: %d", len(subscriptions))
	}

	if subscriptions[0].URL != "https://example.com/rss.xml" {
		t.Errorf("Expected first url preserved, got: %s", subscriptions[0].URL)
	}
	if subscriptions[0].Title != "Example Blog" {
		t.Errorf("Expected first title preserved, got: %s", subscriptions[0].Title)
	}
	if subscriptions[1].Title != "" {
		t.Errorf("Expected empty title, got: %s", subscriptions[1].Title)
	}
}

func TestLoadSubscriptionsMissingFile(t *testing.T) {
	subscriptions, err := LoadSubscriptions(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("Expected missing file to be tolerated, got: %v", err)
	}
	if subscriptions != nil {
		t.Errorf("Expected nil subscriptions, got: %v", subscriptions)
	}
}

func TestLoadSubscriptionsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscriptions.yml")
	if err := os.WriteFile(path, []byte("feeds: [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadSubscriptions(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
