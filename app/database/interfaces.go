package database

import (
	"time"
)

type FeedRepository interface {
	GetFeed(url string) (*Feed, error)
	ListFeeds() ([]Feed, error)
	ListFeedURLs() ([]string, error)
	GetFeedCount() (int, error)

	CreateFeed(url, kind, customTitle string) (bool, error)
	UpdateFeedMetadata(url string, meta FeedMetadata, checked time.Time) error
	UpdateFeedChecked(url string, status int, checked time.Time) error
	UpdateFeedError(url string, message string, checked time.Time) error
	UpdateFeedCustomTitle(url, customTitle string) error

	DeleteFeed(url string) error
}

type ItemRepository interface {
	GetItem(id string) (*Item, error)
	GetItems(q ItemQuery) ([]Item, error)
	GetItemCount(feedURL string) (int, error)
	GetUnreadCount(feedURL string) (int, error)
	GetItemStats() (total, unread, starred int, err error)

	StoreBatch(feedURL string, items []FeedItem) (BatchResult, error)
	UpdateItemState(id string, update ItemStateUpdate) error

	DeleteItem(id string) error
}

type MetaRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

type ReaderCacheRepository interface {
	Get(url string) (*ReaderEntry, error)
	Upsert(entry ReaderEntry) error
	PurgeOlderThan(cutoff time.Time) (int64, error)
}
