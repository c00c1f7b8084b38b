package database

import (
	"cmp"
	"time"
)

// Feed represents one subscribed source. The URL is its sole identity.
type Feed struct {
	URL          string
	Kind         string // generic, youtube, reddit, podcast
	Title        string
	CustomTitle  string // user override, wins over fetched title
	SiteURL      string
	ETag         string
	LastModified string
	LastChecked  *time.Time
	LastStatus   int // HTTP status, 0 for transport error
	LastError    string
	IconURL      string
	RetryCount   int
}

// DisplayTitle returns the user-assigned title when set, the fetched
// title otherwise, falling back to the URL.
func (f *Feed) DisplayTitle() string {
	return cmp.Or(f.CustomTitle, f.Title, f.URL)
}

// Enclosure is a feed-attached binary payload reference, stored as a
// JSON object in the items table.
type Enclosure struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Item represents one stored entry belonging to a feed.
type Item struct {
	ID                   string
	FeedURL              string
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
	CreatedAt            time.Time
	IsRead               bool
	IsStarred            bool
	PlaybackPosition     float64
	ReadAt               *time.Time
}

// ReaderEntry is one cached reader-view extraction.
type ReaderEntry struct {
	URL         string
	Title       string
	Byline      string
	Excerpt     string
	SiteName    string
	ImageURL    string
	ContentHTML string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
