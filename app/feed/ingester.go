package feed

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/feedstream/feedstream/app/database"
)

// Ingester orchestrates one feed refresh: resolve kind, conditional
// fetch, parse, normalize each entry, and upsert feed metadata and
// items. All collaborators are injected; the ingester holds no global
// state.
type Ingester struct {
	client     *Client
	parser     *Parser
	normalizer *Normalizer
	icons      *IconResolver
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
}

func NewIngester(client *Client, parser *Parser, normalizer *Normalizer, icons *IconResolver,
	feedRepo database.FeedRepository, itemRepo database.ItemRepository) *Ingester {
	return &Ingester{
		client:     client,
		parser:     parser,
		normalizer: normalizer,
		icons:      icons,
		feedRepo:   feedRepo,
		itemRepo:   itemRepo,
	}
}

// Run ingests one feed. Feed-level failures (transport, parse, store)
// are recorded on the feed row and carried in the outcome's Error
// field; Run itself never returns an error. Retrying is the caller's
// concern, on the next scheduled sync or on-demand refresh.
func (i *Ingester) Run(ctx context.Context, feedURL string, force bool) RefreshOutcome {
	outcome := RefreshOutcome{URL: feedURL, Kind: KindGeneric}

	record, err := i.feedRepo.GetFeed(feedURL)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Kind = i.resolveKind(feedURL, record)
	if record != nil {
		outcome.Title = record.DisplayTitle()
	}

	tokens := CacheTokens{}
	if record != nil {
		tokens.ETag = record.ETag
		tokens.LastModified = record.LastModified
	}

	result, err := i.client.Fetch(ctx, feedURL, outcome.Kind, tokens, force)
	now := time.Now().UTC()

	if err != nil {
		return i.fail(outcome, err.Error(), now)
	}

	if result.NotModified {
		if err := i.feedRepo.UpdateFeedChecked(feedURL, http.StatusNotModified, now); err != nil {
			slog.Warn("Failed to record 304 check", "feed", feedURL, "error", err)
		}
		outcome.Status = http.StatusNotModified
		outcome.TotalItemsStored = i.storedCount(feedURL)
		return outcome
	}

	metadata, entries, err := i.parser.Run(result.Body)
	if err != nil {
		// A feed that cannot be parsed must surface as an error, not
		// silently produce zero items.
		return i.fail(outcome, err.Error(), now)
	}

	outcome.Title = cmp.Or(metadata.Title, outcome.Title, feedURL)
	outcome.TotalItemsParsed = len(entries)

	// The icon is resolved once, on the first successful refresh; a
	// stored icon is kept on later runs.
	iconURL := ""
	if record == nil || record.IconURL == "" {
		iconURL = i.icons.Resolve(ctx, feedURL, outcome.Kind, siteURLOf(feedURL), metadata)
	}

	err = i.feedRepo.UpdateFeedMetadata(feedURL, database.FeedMetadata{
		Kind:         string(outcome.Kind),
		Title:        metadata.Title,
		SiteURL:      siteURLOf(feedURL),
		ETag:         result.ETag,
		LastModified: result.LastModified,
		IconURL:      iconURL,
		Status:       result.Status,
	}, now)
	if err != nil {
		return i.fail(outcome, err.Error(), now)
	}

	items := make([]database.FeedItem, 0, len(entries))
	for _, entry := range entries {
		item := i.normalizer.Run(entry, outcome.Kind)

		// An item with no link is not actionable; drop it.
		if item.URL == "" {
			continue
		}

		item.ID = GenerateItemID(feedURL, entry)
		items = append(items, toFeedItem(item))
	}

	batch, err := i.itemRepo.StoreBatch(feedURL, items)
	if err != nil {
		return i.fail(outcome, err.Error(), now)
	}

	for _, itemErr := range batch.Errors {
		slog.Warn("Item upsert failed", "feed", feedURL, "item", itemErr.Title, "error", itemErr.Err)
	}

	outcome.Status = result.Status
	outcome.NewItems = batch.New
	outcome.ItemsFailed = len(batch.Errors)
	outcome.TotalItemsStored = i.storedCount(feedURL)

	slog.Info("Feed ingested",
		"feed", feedURL,
		"kind", outcome.Kind,
		"status", outcome.Status,
		"parsed", outcome.TotalItemsParsed,
		"new", outcome.NewItems,
		"failed", outcome.ItemsFailed)

	return outcome
}

// resolveKind prefers the stored kind, but re-runs detection for feeds
// still classified generic so they can be upgraded when URL patterns
// now resolve better. A specific kind is never downgraded.
func (i *Ingester) resolveKind(feedURL string, record *database.Feed) Kind {
	if record != nil && record.Kind != "" && record.Kind != string(KindGeneric) {
		return Kind(record.Kind)
	}
	return DetectKind(feedURL)
}

func (i *Ingester) fail(outcome RefreshOutcome, message string, now time.Time) RefreshOutcome {
	if err := i.feedRepo.UpdateFeedError(outcome.URL, message, now); err != nil {
		slog.Warn("Failed to record feed error", "feed", outcome.URL, "error", err)
	}

	outcome.Status = 0
	outcome.Error = message
	outcome.TotalItemsStored = i.storedCount(outcome.URL)

	slog.Warn("Feed ingestion failed", "feed", outcome.URL, "error", message)

	return outcome
}

func (i *Ingester) storedCount(feedURL string) int {
	count, err := i.itemRepo.GetItemCount(feedURL)
	if err != nil {
		slog.Warn("Failed to count stored items", "feed", feedURL, "error", err)
		return 0
	}
	return count
}

func siteURLOf(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func toFeedItem(item Item) database.FeedItem {
	converted := database.FeedItem{
		ID:                   item.ID,
		Source:               string(item.Source),
		Title:                item.Title,
		URL:                  item.URL,
		Author:               item.Author,
		Summary:              item.Summary,
		Content:              item.Content,
		Published:            item.Published,
		Updated:              item.Updated,
		MediaThumbnail:       item.MediaThumbnail,
		MediaDurationSeconds: item.MediaDurationSeconds,
		ExternalID:           item.ExternalID,
		RawGUID:              item.RawGUID,
	}
	if item.Enclosure != nil {
		converted.Enclosure = &database.Enclosure{URL: item.Enclosure.URL, Type: item.Enclosure.Type}
	}
	return converted
}
