package source

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/KenyYoshimura/event-aggregator-api/internal/config"
	"github.com/KenyYoshimura/event-aggregator-api/internal/httpclient"
)

// FromConfig builds the adapter a source config describes. Errors here are
// configuration mistakes and should be fatal at startup.
func FromConfig(cfg config.SourceConfig, client *httpclient.Client, logger *slog.Logger) (Adapter, error) {
	switch cfg.Type {
	case config.TypeFeed:
		return NewFeedAdapter(cfg.Name, cfg.URL, cfg.MaxItems, cfg.Headers, client), nil

	case config.TypeIndexedFeed:
		return NewIndexedFeedAdapter(cfg.Name, cfg.URLTemplate, cfg.IDs, cfg.MaxItems, cfg.Headers, client, logger)

	case config.TypeScrape:
		var pattern *regexp.Regexp
		if cfg.LinkPattern != "" {
			var err error
			if pattern, err = regexp.Compile(cfg.LinkPattern); err != nil {
				return nil, fmt.Errorf("scrape source %q: invalid link_pattern: %w", cfg.Name, err)
			}
		}
		chain := DefaultChain(cfg.Selectors, pattern)
		return NewScrapeAdapter(cfg.Name, cfg.URL, cfg.MaxItems, cfg.Headers, chain, client, logger)

	default:
		return nil, fmt.Errorf("source %q: unknown type %q", cfg.Name, cfg.Type)
	}
}
