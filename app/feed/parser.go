package feed

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/extensions"
)

// Parser wraps the permissive gofeed parse and lifts namespaced
// extensions (yt:*, media:*, itunes:*) into typed Entry fields.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
	}

	if feed.Image != nil {
		metadata.ImageURL = feed.Image.URL
	}

	if feed.ITunesExt != nil {
		metadata.ITunesImage = feed.ITunesExt.Image
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, p.convertItem(item))
	}

	return metadata, entries, nil
}

func (p *Parser) convertItem(item *gofeed.Item) Entry {
	entry := Entry{
		GUID:            item.GUID,
		Title:           item.Title,
		Link:            item.Link,
		Description:     item.Description,
		Content:         item.Content,
		Author:          p.extractAuthor(item),
		PublishedRaw:    item.Published,
		PublishedParsed: item.PublishedParsed,
		UpdatedRaw:      item.Updated,
		UpdatedParsed:   item.UpdatedParsed,
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		converted := Enclosure{URL: enclosure.URL, Type: enclosure.Type}
		if enclosure.Length != "" {
			if length, err := strconv.ParseInt(enclosure.Length, 10, 64); err == nil {
				converted.Length = length
			}
		}
		entry.Enclosures = append(entry.Enclosures, converted)
	}

	entry.YouTube = p.extractYouTube(item)
	entry.Media = p.extractMedia(item)
	entry.ITunes = p.extractITunes(item)

	return entry
}

func (p *Parser) extractAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		if item.Authors[0].Name != "" {
			return item.Authors[0].Name
		}
		if item.Authors[0].Email != "" {
			return item.Authors[0].Email
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return ""
}

// extractYouTube reads yt:videoId / yt:channelId plus the media:group
// thumbnail and description from YouTube Atom entries.
func (p *Parser) extractYouTube(item *gofeed.Item) *YouTubeEntry {
	yt := YouTubeEntry{
		VideoID:   firstExtensionValue(item, "yt", "videoId"),
		ChannelID: firstExtensionValue(item, "yt", "channelId"),
	}

	if group := firstExtension(item, "media", "group"); group != nil {
		if thumbs, ok := group.Children["thumbnail"]; ok && len(thumbs) > 0 {
			yt.Thumbnail = thumbs[0].Attrs["url"]
		}
		if descs, ok := group.Children["description"]; ok && len(descs) > 0 {
			yt.Description = descs[0].Value
		}
	}

	if yt.VideoID == "" && yt.ChannelID == "" && yt.Thumbnail == "" && yt.Description == "" {
		return nil
	}
	return &yt
}

func (p *Parser) extractMedia(item *gofeed.Item) *MediaEntry {
	media := MediaEntry{}

	if thumb := firstExtension(item, "media", "thumbnail"); thumb != nil {
		media.ThumbnailURL = thumb.Attrs["url"]
	}
	if content := firstExtension(item, "media", "content"); content != nil {
		media.ContentURL = content.Attrs["url"]
		media.ContentType = content.Attrs["type"]
		media.ContentDuration = content.Attrs["duration"]
	}

	if media.ThumbnailURL == "" && media.ContentURL == "" {
		return nil
	}
	return &media
}

func (p *Parser) extractITunes(item *gofeed.Item) *ITunesEntry {
	if item.ITunesExt == nil {
		return nil
	}
	if item.ITunesExt.Duration == "" && item.ITunesExt.Image == "" {
		return nil
	}
	return &ITunesEntry{
		Duration: item.ITunesExt.Duration,
		Image:    item.ITunesExt.Image,
	}
}

func firstExtension(item *gofeed.Item, space, name string) *ext.Extension {
	values, ok := item.Extensions[space][name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func firstExtensionValue(item *gofeed.Item, space, name string) string {
	if e := firstExtension(item, space, name); e != nil {
		return e.Value
	}
	return ""
}
