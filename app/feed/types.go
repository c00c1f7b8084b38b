package feed

import (
	"time"
)

// Kind classifies a feed's source platform and drives normalization.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindYouTube Kind = "youtube"
	KindReddit  Kind = "reddit"
	KindPodcast Kind = "podcast"
)

// Metadata holds feed-level fields from a successful parse.
type Metadata struct {
	Title       string
	Link        string
	Description string
	ImageURL    string // feed image / podcast artwork
	ITunesImage string
}

// Entry is one raw feed entry after the permissive parse step. The
// kind-specific sub-structs are populated from namespaced extensions
// when present, so normalizers work with typed fields instead of
// probing extension maps.
type Entry struct {
	GUID            string
	Title           string
	Link            string
	Description     string
	Content         string
	Author          string
	PublishedRaw    string
	PublishedParsed *time.Time
	UpdatedRaw      string
	UpdatedParsed   *time.Time
	Enclosures      []Enclosure
	YouTube         *YouTubeEntry
	Media           *MediaEntry
	ITunes          *ITunesEntry
}

// YouTubeEntry carries yt:* and media:group data from YouTube Atom feeds.
type YouTubeEntry struct {
	VideoID     string
	ChannelID   string
	Thumbnail   string
	Description string
}

// MediaEntry carries media:thumbnail / media:content data.
type MediaEntry struct {
	ThumbnailURL    string
	ContentURL      string
	ContentType     string
	ContentDuration string
}

// ITunesEntry carries itunes:* item data from podcast feeds.
type ITunesEntry struct {
	Duration string
	Image    string
}

// Enclosure is a feed-attached binary payload reference.
type Enclosure struct {
	URL    string
	Type   string
	Length int64
}

// Item is one normalized entry ready for storage.
type Item struct {
	ID                   string
	Source               Kind
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

// RefreshOutcome reports the result of one feed ingestion to callers.
// Errors are carried in the Error field, never raised.
type RefreshOutcome struct {
	URL              string `json:"url"`
	Kind             Kind   `json:"kind"`
	Status           int    `json:"status"`
	Title            string `json:"title"`
	NewItems         int    `json:"newItems"`
	TotalItemsParsed int    `json:"totalItemsParsed"`
	TotalItemsStored int    `json:"totalItemsStored"`
	ItemsFailed      int    `json:"itemsFailed,omitempty"`
	Error            string `json:"error,omitempty"`
}
