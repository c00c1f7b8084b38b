package feed

import (
	"regexp"
	"strings"
)

// Boilerplate reddit RSS markup: submitted-by banners, [link]/[comments]
// anchors, video links, stacked line breaks, empty tags.
var (
	redditSubmittedSpan = regexp.MustCompile(`(?is)<span[^>]*>.*?submitted by.*?to.*?</span>`)
	redditSubmittedLine = regexp.MustCompile(`(?is)submitted by.*?to.*?<br\s*/?>`)
	redditLinkAnchor    = regexp.MustCompile(`(?is)<a[^>]*>\[link\]</a>`)
	redditCommentAnchor = regexp.MustCompile(`(?is)<a[^>]*>\[comments\]</a>`)
	redditVideoAnchor   = regexp.MustCompile(`(?is)<a[^>]*>https?://v\.redd\.it/[^<]*</a>`)
	redditRepeatedBreak = regexp.MustCompile(`(?i)(<br\s*/?>\s*){2,}`)
	redditEmptyAnchor   = regexp.MustCompile(`(?i)<a[^>]*></a>`)
	redditEmptySpan     = regexp.MustCompile(`(?i)<span[^>]*></span>`)

	redditImageTag   = regexp.MustCompile(`(?i)<img[^>]+src="([^"]+)"`)
	redditWidthParam = regexp.MustCompile(`width=\d+`)
)

func (n *Normalizer) applyReddit(item *Item, entry Entry) {
	if item.MediaThumbnail == "" {
		item.MediaThumbnail = extractRedditThumbnail(entry)
	}
	if item.Content != "" {
		item.Content = cleanRedditContent(item.Content)
	}
	if item.Summary != "" {
		item.Summary = cleanRedditContent(item.Summary)
	}
}

func cleanRedditContent(html string) string {
	cleaned := html
	cleaned = redditSubmittedSpan.ReplaceAllString(cleaned, "")
	cleaned = redditSubmittedLine.ReplaceAllString(cleaned, "")
	cleaned = redditLinkAnchor.ReplaceAllString(cleaned, "")
	cleaned = redditCommentAnchor.ReplaceAllString(cleaned, "")
	cleaned = redditVideoAnchor.ReplaceAllString(cleaned, "")
	cleaned = redditRepeatedBreak.ReplaceAllString(cleaned, "<br/>")
	cleaned = redditEmptyAnchor.ReplaceAllString(cleaned, "")
	cleaned = redditEmptySpan.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// extractRedditThumbnail finds an image inside the post content. Video
// posts get no thumbnail (the image would be a player frame). Reddit
// preview URLs are upgraded to a higher resolution.
func extractRedditThumbnail(entry Entry) string {
	content := entry.Content
	if content == "" {
		content = entry.Description
	}
	if content == "" {
		return ""
	}

	lower := strings.ToLower(content)
	if strings.Contains(lower, "v.redd.it") || strings.Contains(lower, "player") || strings.Contains(lower, "video") {
		return ""
	}

	match := redditImageTag.FindStringSubmatch(content)
	if match == nil {
		return ""
	}

	return upgradeRedditImage(match[1])
}

func upgradeRedditImage(src string) string {
	src = strings.ReplaceAll(src, "&amp;", "&")

	if strings.Contains(src, "i.redd.it") || strings.Contains(src, "preview.redd.it") {
		src = redditWidthParam.ReplaceAllString(src, "width=640")
	}

	return src
}
