package feed

import (
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Tracking query parameters stripped from item links.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid", "gclid", "ref", "source",
}

// Normalizer converts one raw entry into a canonical item. It never
// fails: missing fields degrade to empty values instead of dropping the
// whole feed.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) Run(entry Entry, kind Kind) Item {
	now := time.Now().UTC()

	item := Item{
		Source:    kind,
		Title:     entry.Title,
		URL:       normalizeURL(extractEntryURL(entry)),
		Author:    entry.Author,
		Summary:   entry.Description,
		Content:   entry.Content,
		Published: n.parsePublished(entry, now),
		Updated:   n.parseUpdated(entry),
		RawGUID:   entry.GUID,
	}

	if item.Content == "" {
		item.Content = entry.Description
	}

	switch kind {
	case KindYouTube:
		n.applyYouTube(&item, entry)
	case KindReddit:
		n.applyReddit(&item, entry)
	default:
		n.applyEnclosure(&item, entry)
	}

	if item.MediaThumbnail == "" {
		item.MediaThumbnail = extractHeroImage(entry)
	}

	return item
}

// parsePublished parses the entry's publish date, defaulting to now
// when absent or unparseable, and clamping future dates to now so a
// misbehaving feed cannot place items above real current ones.
func (n *Normalizer) parsePublished(entry Entry, now time.Time) time.Time {
	published := now

	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC()
	} else if entry.PublishedRaw != "" {
		if parsed, err := dateparse.ParseAny(entry.PublishedRaw); err == nil {
			published = parsed.UTC()
		}
	}

	if published.After(now) {
		published = now
	}

	return published
}

func (n *Normalizer) parseUpdated(entry Entry) *time.Time {
	if entry.UpdatedParsed != nil {
		updated := entry.UpdatedParsed.UTC()
		return &updated
	}
	if entry.UpdatedRaw != "" {
		if parsed, err := dateparse.ParseAny(entry.UpdatedRaw); err == nil {
			updated := parsed.UTC()
			return &updated
		}
	}
	return nil
}

func extractEntryURL(entry Entry) string {
	if entry.Link != "" {
		return entry.Link
	}
	if len(entry.Enclosures) > 0 {
		return entry.Enclosures[0].URL
	}
	return ""
}

// normalizeURL strips known tracking query parameters. An unparseable
// URL is kept as-is rather than dropped.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := u.Query()
	changed := false
	for _, param := range trackingParams {
		if query.Has(param) {
			query.Del(param)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

func looksLikeAudioFile(link string) bool {
	lower := strings.ToLower(link)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, extension := range []string{".mp3", ".m4a", ".ogg", ".wav", ".aac", ".flac"} {
		if strings.HasSuffix(lower, extension) {
			return true
		}
	}
	return false
}
