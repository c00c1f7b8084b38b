package feed

import (
	"regexp"
	"strings"
)

var (
	ogImageMeta      = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:image["'][^>]+content=["']([^"']+)["']`)
	twitterImageMeta = regexp.MustCompile(`(?i)<meta[^>]+name=["']twitter:image["'][^>]+content=["']([^"']+)["']`)
	firstImageTag    = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["'][^>]*>`)
)

// Substrings that mark an <img> as decoration rather than a hero image.
var decorativeImageHints = []string{"icon", "logo", "avatar", "favicon", "button", "spinner"}

// extractHeroImage picks a representative image for entries that got no
// kind-specific thumbnail: explicit media:thumbnail, then an image-type
// enclosure, then Open Graph / Twitter Card meta tags inside the
// content, then the first non-decorative <img>.
func extractHeroImage(entry Entry) string {
	if entry.Media != nil && entry.Media.ThumbnailURL != "" {
		return entry.Media.ThumbnailURL
	}

	for _, enclosure := range entry.Enclosures {
		if strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}

	content := entry.Content
	if content == "" {
		content = entry.Description
	}
	if content == "" {
		return ""
	}

	if match := ogImageMeta.FindStringSubmatch(content); match != nil {
		return match[1]
	}
	if match := twitterImageMeta.FindStringSubmatch(content); match != nil {
		return match[1]
	}

	if match := firstImageTag.FindStringSubmatch(content); match != nil {
		src := match[1]
		lower := strings.ToLower(src)
		for _, hint := range decorativeImageHints {
			if strings.Contains(lower, hint) {
				return ""
			}
		}
		return src
	}

	return ""
}
