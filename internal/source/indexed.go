package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
	"github.com/KenyYoshimura/event-aggregator-api/internal/httpclient"
)

// idPlaceholder is the token in a URL template replaced by each feed ID.
const idPlaceholder = "{id}"

// indexedFetchLimit caps concurrent per-ID fetches within one adapter so a
// long ID list does not open a connection per entry at once.
const indexedFetchLimit = 4

// IndexedFeedAdapter fetches one feed endpoint per configured ID, e.g. one
// press-release feed per company, and concatenates the results. A failing
// ID only removes its own contribution; the adapter as a whole fails only
// when every ID does.
type IndexedFeedAdapter struct {
	name        string
	urlTemplate string
	ids         []string
	maxItems    int // per ID
	headers     map[string]string
	client      *httpclient.Client
	logger      *slog.Logger
}

// NewIndexedFeedAdapter creates an IndexedFeedAdapter. urlTemplate must
// contain the {id} placeholder; maxItems caps items per ID, zero means
// no cap.
func NewIndexedFeedAdapter(name, urlTemplate string, ids []string, maxItems int, headers map[string]string, client *httpclient.Client, logger *slog.Logger) (*IndexedFeedAdapter, error) {
	if !strings.Contains(urlTemplate, idPlaceholder) {
		return nil, fmt.Errorf("url template %q has no %s placeholder", urlTemplate, idPlaceholder)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("indexed feed %q has no ids", name)
	}
	return &IndexedFeedAdapter{
		name:        name,
		urlTemplate: urlTemplate,
		ids:         ids,
		maxItems:    maxItems,
		headers:     headers,
		client:      client,
		logger:      logger,
	}, nil
}

func (a *IndexedFeedAdapter) Name() string { return a.name }

// Fetch retrieves every ID's feed concurrently. Goroutines never return
// errors to the group, so one failure cannot cancel the siblings; failures
// are collected and only an all-IDs-failed batch surfaces as an error.
func (a *IndexedFeedAdapter) Fetch(ctx context.Context) ([]domain.Event, error) {
	fetchTime := time.Now()

	var (
		mu     sync.Mutex
		events []domain.Event
		errs   []error
	)

	g := new(errgroup.Group)
	g.SetLimit(indexedFetchLimit)

	for _, id := range a.ids {
		g.Go(func() error {
			evs, err := a.fetchOne(ctx, id, fetchTime)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				a.logger.Warn("indexed feed id failed",
					"source", a.name,
					"id", id,
					"error", err,
				)
				return nil
			}
			events = append(events, evs...)
			return nil
		})
	}
	g.Wait()

	if len(errs) > 0 && len(errs) == len(a.ids) {
		kind := KindTransport
		var fe *FetchError
		if errors.As(errs[0], &fe) {
			kind = fe.Kind
		}
		return nil, &FetchError{
			Source: a.name,
			Kind:   kind,
			Err:    fmt.Errorf("all %d ids failed: %w", len(a.ids), errors.Join(errs...)),
		}
	}

	return dedupeByID(events), nil
}

// fetchOne downloads and parses the feed for a single ID. Records are
// labeled with the ID so provenance survives the concatenation.
func (a *IndexedFeedAdapter) fetchOne(ctx context.Context, id string, fetchTime time.Time) ([]domain.Event, error) {
	url := strings.ReplaceAll(a.urlTemplate, idPlaceholder, id)
	label := fmt.Sprintf("%s (id: %s)", a.name, id)

	body, err := a.client.Get(ctx, url, a.headers)
	if err != nil {
		return nil, fail(label, err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &FetchError{Source: label, Kind: KindParse, Err: err}
	}

	return itemsToEvents(feed.Items, label, a.maxItems, fetchTime), nil
}
