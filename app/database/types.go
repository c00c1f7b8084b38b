package database

import (
	"time"
)

// FeedMetadata carries the feed-level fields written after a successful
// fetch and parse.
type FeedMetadata struct {
	Kind         string
	Title        string
	SiteURL      string
	ETag         string
	LastModified string
	IconURL      string // empty preserves the stored value
	Status       int
}

// FeedItem is the normalized item input handed to the item repository.
// User state (is_read, is_starred, playback_position, read_at) is owned
// by the store and never part of this type.
type FeedItem struct {
	ID                   string
	Source               string
	Title                string
	URL                  string
	Author               string
	Summary              string
	Content              string
	Published            time.Time
	Updated              *time.Time
	MediaThumbnail       string
	MediaDurationSeconds *int
	ExternalID           string
	RawGUID              string
	Enclosure            *Enclosure
}

// ItemError records a single entry that failed to persist during a
// batch upsert.
type ItemError struct {
	ID    string
	Title string
	Err   string
}

// BatchResult reports the outcome of one batch upsert: how many rows
// were new, how many updated existing rows, and which entries failed.
type BatchResult struct {
	New     int
	Updated int
	Errors  []ItemError
}

// ItemQuery selects stored items for the list endpoints.
type ItemQuery struct {
	FeedURL     string
	UnreadOnly  bool
	StarredOnly bool
	Limit       int
	Offset      int
}

// ItemStateUpdate carries the mutable user-state fields; nil fields are
// left untouched.
type ItemStateUpdate struct {
	IsRead           *bool
	IsStarred        *bool
	PlaybackPosition *float64
}
