package feed

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Avatar patterns tried in order against YouTube channel page HTML.
var youtubeAvatarPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"avatar":\{"thumbnails":\[\{"url":"([^"]+)"`),
	regexp.MustCompile(`"channelMetadataRenderer".*?"avatar".*?"url":"([^"]+)"`),
	regexp.MustCompile(`yt-img-shadow.*?src="(https://yt3\.googleusercontent\.com/[^"]+)"`),
	regexp.MustCompile(`<meta property="og:image" content="([^"]+)"`),
}

var (
	youtubeChannelID  = regexp.MustCompile(`channel_id=([^&]+)`)
	youtubeAvatarSize = regexp.MustCompile(`=s\d+.*`)
	redditSubreddit   = regexp.MustCompile(`reddit\.com/r/([^/?#.]+)`)
)

// IconResolver looks up a feed's favicon/avatar/artwork. It is a fully
// isolated failure domain: every miss or network error yields "" and a
// debug log, never an error to the caller. The per-kind lookups are
// plain strategy functions so a structured API can replace any of them
// without touching the ingestion flow.
type IconResolver struct {
	httpClient *http.Client

	// Overridable in tests.
	youtubeBaseURL string
	redditBaseURL  string
}

func NewIconResolver(timeout time.Duration) *IconResolver {
	return &IconResolver{
		httpClient:     &http.Client{Timeout: timeout},
		youtubeBaseURL: "https://www.youtube.com",
		redditBaseURL:  "https://www.reddit.com",
	}
}

// Resolve returns the best icon URL it can find, or "" when every
// strategy fails.
func (r *IconResolver) Resolve(ctx context.Context, feedURL string, kind Kind, siteURL string, metadata *Metadata) string {
	switch kind {
	case KindYouTube:
		if icon := r.resolveYouTube(ctx, feedURL); icon != "" {
			return icon
		}
	case KindReddit:
		if icon := r.resolveReddit(ctx, feedURL); icon != "" {
			return icon
		}
	case KindPodcast:
		if metadata != nil {
			if icon := cmp.Or(metadata.ITunesImage, metadata.ImageURL); icon != "" {
				return icon
			}
		}
	}

	return faviconServiceURL(cmp.Or(siteURL, feedURL))
}

// resolveYouTube scrapes the channel page for an avatar image.
func (r *IconResolver) resolveYouTube(ctx context.Context, feedURL string) string {
	match := youtubeChannelID.FindStringSubmatch(feedURL)
	if match == nil {
		return ""
	}
	channelID := match[1]

	html, err := r.get(ctx, fmt.Sprintf("%s/channel/%s", r.youtubeBaseURL, channelID), browserUserAgent)
	if err != nil {
		slog.Debug("YouTube avatar lookup failed", "channel", channelID, "error", err)
		return ""
	}

	for _, pattern := range youtubeAvatarPatterns {
		if match := pattern.FindStringSubmatch(html); match != nil {
			avatar := strings.ReplaceAll(match[1], `\u0026`, "&")
			if strings.Contains(avatar, "=s") {
				// s176 is the standard high-res avatar size.
				avatar = youtubeAvatarSize.ReplaceAllString(avatar, "=s176-c-k-c0x00ffffff-no-rj-mo")
			}
			return avatar
		}
	}

	return ""
}

// resolveReddit reads the subreddit's public about endpoint.
func (r *IconResolver) resolveReddit(ctx context.Context, feedURL string) string {
	match := redditSubreddit.FindStringSubmatch(feedURL)
	if match == nil {
		return ""
	}
	subreddit := match[1]

	body, err := r.get(ctx, fmt.Sprintf("%s/r/%s/about.json", r.redditBaseURL, subreddit), browserUserAgent)
	if err != nil {
		slog.Debug("Reddit icon lookup failed", "subreddit", subreddit, "error", err)
		return ""
	}

	var about struct {
		Data struct {
			CommunityIcon string `json:"community_icon"`
			IconImg       string `json:"icon_img"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &about); err != nil {
		slog.Debug("Reddit about response not parseable", "subreddit", subreddit, "error", err)
		return ""
	}

	icon := cmp.Or(about.Data.CommunityIcon, about.Data.IconImg)
	return strings.ReplaceAll(icon, "&amp;", "&")
}

func (r *IconResolver) get(ctx context.Context, rawURL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// faviconServiceURL falls back to a favicon service keyed by hostname.
func faviconServiceURL(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/s2/favicons?sz=128&domain=%s", u.Hostname())
}
