package feed

import (
	"fmt"
	"regexp"
)

var youtubeWatchID = regexp.MustCompile(`[?&]v=([^&]+)`)

// applyYouTube fills video metadata: the external id comes from the
// yt:videoId extension or the watch URL, the thumbnail from YouTube's
// fixed image URL template, with the media:group thumbnail as fallback.
func (n *Normalizer) applyYouTube(item *Item, entry Entry) {
	if entry.YouTube != nil && entry.YouTube.VideoID != "" {
		item.ExternalID = entry.YouTube.VideoID
	} else if entry.Link != "" {
		if match := youtubeWatchID.FindStringSubmatch(entry.Link); match != nil {
			item.ExternalID = match[1]
		}
	}

	if item.ExternalID != "" {
		item.MediaThumbnail = fmt.Sprintf("https://i.ytimg.com/vi/%s/maxresdefault.jpg", item.ExternalID)
	} else if entry.YouTube != nil && entry.YouTube.Thumbnail != "" {
		item.MediaThumbnail = entry.YouTube.Thumbnail
	}

	// YouTube Atom entries carry the real description in media:group.
	if entry.YouTube != nil && entry.YouTube.Description != "" {
		if item.Summary == "" {
			item.Summary = entry.YouTube.Description
		}
		if item.Content == "" || item.Content == item.Summary {
			item.Content = entry.YouTube.Description
		}
	}
}
