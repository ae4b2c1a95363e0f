package source

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
	"github.com/KenyYoshimura/event-aggregator-api/internal/httpclient"
)

const maxDescriptionRunes = 500

// FeedAdapter reads one RSS or Atom feed.
type FeedAdapter struct {
	name     string
	url      string
	maxItems int
	headers  map[string]string
	client   *httpclient.Client
}

// NewFeedAdapter creates a FeedAdapter. maxItems caps the number of items
// taken from the feed; zero means no cap.
func NewFeedAdapter(name, url string, maxItems int, headers map[string]string, client *httpclient.Client) *FeedAdapter {
	return &FeedAdapter{
		name:     name,
		url:      url,
		maxItems: maxItems,
		headers:  headers,
		client:   client,
	}
}

func (f *FeedAdapter) Name() string { return f.name }

// Fetch downloads and parses the feed. Malformed feed content is a parse
// failure, not a panic; the caller decides what a failure means.
func (f *FeedAdapter) Fetch(ctx context.Context) ([]domain.Event, error) {
	body, err := f.client.Get(ctx, f.url, f.headers)
	if err != nil {
		return nil, fail(f.name, err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &FetchError{Source: f.name, Kind: KindParse, Err: err}
	}

	return dedupeByID(itemsToEvents(feed.Items, f.name, f.maxItems, time.Now())), nil
}

// itemsToEvents maps feed items to events, skipping title-less items and
// stopping at maxItems when positive.
func itemsToEvents(items []*gofeed.Item, sourceName string, maxItems int, fetchTime time.Time) []domain.Event {
	events := make([]domain.Event, 0, len(items))
	for _, item := range items {
		if maxItems > 0 && len(events) >= maxItems {
			break
		}
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}
		events = append(events, eventFromItem(item, sourceName, fetchTime))
	}
	return events
}

func eventFromItem(item *gofeed.Item, sourceName string, fetchTime time.Time) domain.Event {
	published := fetchTime
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	var category string
	if len(item.Categories) > 0 {
		category = strings.TrimSpace(item.Categories[0])
	}

	var imageURL string
	if item.Image != nil {
		imageURL = item.Image.URL
	}

	return domain.Event{
		ID:          feedItemID(item),
		Title:       sanitizeText(item.Title, 0),
		Description: sanitizeText(item.Description, maxDescriptionRunes),
		URL:         item.Link,
		PublishedAt: published,
		Source:      sourceName,
		Category:    category,
		ImageURL:    imageURL,
	}
}

// feedItemID prefers the feed's own identifiers so an item keeps the same
// ID across fetch cycles. The hash fallback covers feeds without GUIDs
// or links.
func feedItemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	if item.Link != "" {
		return item.Link
	}
	key := item.Title
	if item.PublishedParsed != nil {
		key += item.PublishedParsed.String()
	}
	return hashID(key)
}
