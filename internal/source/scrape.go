package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
	"github.com/KenyYoshimura/event-aggregator-api/internal/httpclient"
)

// ScrapeAdapter extracts events from an HTML page that offers no feed.
// Strategies run in order; the first one yielding any records wins. A page
// where nothing matches is an empty result, not a failure: some of these
// pages genuinely have no announcements up.
type ScrapeAdapter struct {
	name     string
	pageURL  string
	base     *url.URL
	maxItems int
	headers  map[string]string
	chain    []Strategy
	client   *httpclient.Client
	logger   *slog.Logger
}

// NewScrapeAdapter creates a ScrapeAdapter. An empty chain selects the
// default selector, link-pattern, text-block order. maxItems caps the
// result after the date sort, zero means no cap.
func NewScrapeAdapter(name, pageURL string, maxItems int, headers map[string]string, chain []Strategy, client *httpclient.Client, logger *slog.Logger) (*ScrapeAdapter, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("scrape source %q: invalid url %q: %w", name, pageURL, err)
	}
	if len(chain) == 0 {
		chain = DefaultChain(nil, nil)
	}
	return &ScrapeAdapter{
		name:     name,
		pageURL:  pageURL,
		base:     base,
		maxItems: maxItems,
		headers:  headers,
		chain:    chain,
		client:   client,
		logger:   logger,
	}, nil
}

// DefaultChain is the standard extraction order. containers and pattern
// override the selector and link-pattern defaults when non-nil.
func DefaultChain(containers []string, pattern *regexp.Regexp) []Strategy {
	return []Strategy{
		NewSelectorStrategy(containers),
		NewLinkPatternStrategy(pattern),
		&TextBlockStrategy{},
	}
}

func (a *ScrapeAdapter) Name() string { return a.name }

// Fetch downloads the page and runs the fallback chain. Results are sorted
// newest first and truncated before return so callers see the same shape a
// feed adapter produces.
func (a *ScrapeAdapter) Fetch(ctx context.Context) ([]domain.Event, error) {
	body, err := a.client.Get(ctx, a.pageURL, a.headers)
	if err != nil {
		return nil, fail(a.name, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Source: a.name, Kind: KindParse, Err: err}
	}

	fetchTime := time.Now()
	var events []domain.Event
	for _, strat := range a.chain {
		if events = strat.Extract(doc, a.base, fetchTime); len(events) > 0 {
			a.logger.Debug("scrape strategy matched",
				"source", a.name,
				"strategy", strat.Name(),
				"items", len(events),
			)
			break
		}
	}
	if len(events) == 0 {
		a.logger.Debug("no scrape strategy matched", "source", a.name)
		return nil, nil
	}

	for i := range events {
		events[i].Source = a.name
	}
	events = dedupeByID(events)

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].PublishedAt.After(events[j].PublishedAt)
	})
	if a.maxItems > 0 && len(events) > a.maxItems {
		events = events[:a.maxItems]
	}
	return events, nil
}
