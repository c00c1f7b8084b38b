package feed

import (
	"strings"
)

// DetectKind classifies a feed URL by pattern matching. Rules are
// checked in a fixed priority order because URLs may satisfy multiple
// weak heuristics (a reddit URL ending in .mp3 is still reddit), so
// YouTube wins over Reddit wins over Podcast.
func DetectKind(url string) Kind {
	lower := strings.ToLower(url)

	if strings.Contains(lower, "youtube.com") ||
		strings.Contains(lower, "youtu.be") ||
		strings.Contains(lower, "feeds/videos.xml") {
		return KindYouTube
	}

	if strings.Contains(lower, "reddit.com") ||
		strings.Contains(lower, "/.rss") ||
		strings.Contains(lower, "/r/") {
		return KindReddit
	}

	if strings.Contains(lower, "podcast") ||
		strings.Contains(lower, ".mp3") ||
		strings.Contains(lower, "itunes.apple.com") ||
		strings.Contains(lower, "anchor.fm") {
		return KindPodcast
	}

	return KindGeneric
}
