package api

import (
	"time"

	"github.com/feedstream/feedstream/app/database"
	"github.com/feedstream/feedstream/app/feed"
	"github.com/feedstream/feedstream/app/tasks"
)

type Handler struct {
	feedRepo  database.FeedRepository
	itemRepo  database.ItemRepository
	metaRepo  database.MetaRepository
	ingester  *feed.Ingester
	reader    *feed.Reader
	scheduler tasks.TaskSchedulerInterface
	events    *tasks.Events
}

// FeedResponse is the API rendering of a subscribed feed.
type FeedResponse struct {
	URL          string     `json:"url"`
	Kind         string     `json:"kind"`
	Title        string     `json:"title"`
	CustomTitle  string     `json:"customTitle,omitempty"`
	DisplayTitle string     `json:"displayTitle"`
	SiteURL      string     `json:"siteUrl,omitempty"`
	IconURL      string     `json:"iconUrl,omitempty"`
	LastChecked  *time.Time `json:"lastChecked,omitempty"`
	LastStatus   int        `json:"lastStatus"`
	LastError    string     `json:"lastError,omitempty"`
	ItemCount    int        `json:"itemCount"`
	UnreadCount  int        `json:"unreadCount"`
}

// ItemResponse is the API rendering of a stored item.
type ItemResponse struct {
	ID                   string              `json:"id"`
	FeedURL              string              `json:"feedUrl"`
	Source               string              `json:"source"`
	Title                string              `json:"title"`
	URL                  string              `json:"url"`
	Author               string              `json:"author,omitempty"`
	Summary              string              `json:"summary,omitempty"`
	Content              string              `json:"content,omitempty"`
	Published            time.Time           `json:"published"`
	Updated              *time.Time          `json:"updated,omitempty"`
	MediaThumbnail       string              `json:"mediaThumbnail,omitempty"`
	MediaDurationSeconds *int                `json:"mediaDurationSeconds,omitempty"`
	Enclosure            *database.Enclosure `json:"enclosure,omitempty"`
	IsRead               bool                `json:"isRead"`
	IsStarred            bool                `json:"isStarred"`
	PlaybackPosition     float64             `json:"playbackPosition"`
	ReadAt               *time.Time          `json:"readAt,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
}

// ReaderResponse is the API rendering of a reader cache entry.
type ReaderResponse struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Byline      string `json:"byline,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ContentHTML string `json:"contentHtml"`
}

type createFeedRequest struct {
	URL   string `json:"url" binding:"required"`
	Title string `json:"title"`
}

type updateFeedRequest struct {
	Title *string `json:"title"`
}

type updateItemRequest struct {
	IsRead           *bool    `json:"isRead"`
	IsStarred        *bool    `json:"isStarred"`
	PlaybackPosition *float64 `json:"playbackPosition"`
}

type settingRequest struct {
	Value string `json:"value"`
}

func feedResponse(f database.Feed) FeedResponse {
	return FeedResponse{
		URL:          f.URL,
		Kind:         f.Kind,
		Title:        f.Title,
		CustomTitle:  f.CustomTitle,
		DisplayTitle: f.DisplayTitle(),
		SiteURL:      f.SiteURL,
		IconURL:      f.IconURL,
		LastChecked:  f.LastChecked,
		LastStatus:   f.LastStatus,
		LastError:    f.LastError,
	}
}

func itemResponse(item database.Item) ItemResponse {
	return ItemResponse{
		ID:                   item.ID,
		FeedURL:              item.FeedURL,
		Source:               item.Source,
		Title:                item.Title,
		URL:                  item.URL,
		Author:               item.Author,
		Summary:              item.Summary,
		Content:              item.Content,
		Published:            item.Published,
		Updated:              item.Updated,
		MediaThumbnail:       item.MediaThumbnail,
		MediaDurationSeconds: item.MediaDurationSeconds,
		Enclosure:            item.Enclosure,
		IsRead:               item.IsRead,
		IsStarred:            item.IsStarred,
		PlaybackPosition:     item.PlaybackPosition,
		ReadAt:               item.ReadAt,
		CreatedAt:            item.CreatedAt,
	}
}

func readerResponse(entry database.ReaderEntry) ReaderResponse {
	return ReaderResponse{
		URL:         entry.URL,
		Title:       entry.Title,
		Byline:      entry.Byline,
		Excerpt:     entry.Excerpt,
		SiteName:    entry.SiteName,
		ImageURL:    entry.ImageURL,
		ContentHTML: entry.ContentHTML,
	}
}
