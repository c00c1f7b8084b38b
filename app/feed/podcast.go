package feed

import (
	"strconv"
	"strings"
)

// applyEnclosure handles podcast and generic entries: it resolves the
// media enclosure and the playback duration.
func (n *Normalizer) applyEnclosure(item *Item, entry Entry) {
	item.Enclosure = extractEnclosure(entry)
	item.MediaDurationSeconds = extractDuration(entry)
}

// extractEnclosure picks the explicit enclosure first, then a
// media:content url, and finally treats the entry link itself as the
// enclosure when it points at an audio file.
func extractEnclosure(entry Entry) *Enclosure {
	if len(entry.Enclosures) > 0 {
		enclosure := entry.Enclosures[0]
		return &enclosure
	}

	if entry.Media != nil && entry.Media.ContentURL != "" {
		return &Enclosure{URL: entry.Media.ContentURL, Type: entry.Media.ContentType}
	}

	if entry.Link != "" && looksLikeAudioFile(entry.Link) {
		return &Enclosure{URL: entry.Link}
	}

	return nil
}

func extractDuration(entry Entry) *int {
	if entry.ITunes != nil && entry.ITunes.Duration != "" {
		if seconds := parseDuration(entry.ITunes.Duration); seconds != nil {
			return seconds
		}
	}
	if entry.Media != nil && entry.Media.ContentDuration != "" {
		return parseDuration(entry.Media.ContentDuration)
	}
	return nil
}

// parseDuration accepts a plain seconds integer or a colon-delimited
// H:MM:SS / MM:SS value. Negative or unparseable durations yield nil,
// not zero.
func parseDuration(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if !strings.Contains(raw, ":") {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 {
			return nil
		}
		return &seconds
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return nil
	}

	total := 0
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 {
			return nil
		}
		total = total*60 + value
	}

	return &total
}
