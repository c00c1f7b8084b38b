package feed

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateItemID derives a stable, content-addressed identifier for an
// entry. The best available natural key is used (guid, link, title,
// publish date, in that order); entries without any identifier fall
// back to a hash of their textual content so they still dedupe by
// content rather than by arrival order. The entry's position in the
// feed is deliberately never part of the id: feed order changes between
// polls and would create duplicate rows for unchanged entries.
func GenerateItemID(feedURL string, entry Entry) string {
	identifier := cmp.Or(entry.GUID, entry.Link, entry.Title, entry.PublishedRaw)
	if identifier == "" {
		identifier = "content:" + hashString(cmp.Or(entry.Content, entry.Description))
	}

	return hashString(feedURL + "|" + identifier)
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
