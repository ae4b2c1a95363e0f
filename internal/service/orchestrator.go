// Package service holds the orchestrator: the one component that turns a
// set of unreliable source adapters into a consistent, bounded, cached
// dataset. Source failures stop here; callers only ever see a valid
// (possibly empty) result.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
	"github.com/KenyYoshimura/event-aggregator-api/internal/metrics"
	"github.com/KenyYoshimura/event-aggregator-api/internal/source"
)

// ErrUnknownDataset is returned for a dataset key that was never
// registered. It is the orchestrator's only error surface: a request for a
// registered dataset always succeeds, however the sources behave.
var ErrUnknownDataset = errors.New("unknown dataset")

const (
	defaultFetchLimit = 8
	defaultMaxItems   = 100
)

type dataset struct {
	key      string
	maxItems int
	adapters []Adapter
}

// Orchestrator owns the registered datasets and their cache. One request
// per dataset triggers at most one fetch cycle per TTL window; concurrent
// cycles racing on the same key are tolerated, last writer wins.
type Orchestrator struct {
	cache      Cache
	classifier Classifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	fetchLimit int

	datasets map[string]*dataset
	keys     []string // registration order, for Refresh
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics wires the pipeline counters in. Without it the orchestrator
// only logs.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithFetchLimit caps how many adapters fetch concurrently in one cycle.
func WithFetchLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.fetchLimit = n
		}
	}
}

// New creates an Orchestrator with no datasets registered.
func New(cache Cache, classifier Classifier, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:      cache,
		classifier: classifier,
		logger:     logger,
		fetchLimit: defaultFetchLimit,
		datasets:   make(map[string]*dataset),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterDataset adds a named dataset backed by adapters. maxItems caps
// the merged result, zero selects the default. Registration mistakes are
// contract violations meant to be fatal at startup.
func (o *Orchestrator) RegisterDataset(key string, maxItems int, adapters ...Adapter) error {
	if key == "" {
		return fmt.Errorf("dataset key is empty")
	}
	if len(adapters) == 0 {
		return fmt.Errorf("dataset %q has no adapters", key)
	}
	if _, ok := o.datasets[key]; ok {
		return fmt.Errorf("dataset %q already registered", key)
	}
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	o.datasets[key] = &dataset{key: key, maxItems: maxItems, adapters: adapters}
	o.keys = append(o.keys, key)
	return nil
}

// GetEvents returns the dataset's events, newest first, at most its
// configured maximum. A fresh cache entry is returned as is, with no
// upstream activity; otherwise a full fetch cycle runs and its result is
// cached before returning.
func (o *Orchestrator) GetEvents(ctx context.Context, key string) ([]domain.Event, error) {
	d, ok := o.datasets[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, key)
	}

	if events, ok := o.cache.Get(key); ok {
		if o.metrics != nil {
			o.metrics.CacheHits.WithLabelValues(key).Inc()
		}
		o.logger.Debug("cache hit", "dataset", key, "events", len(events))
		return events, nil
	}
	if o.metrics != nil {
		o.metrics.CacheMisses.WithLabelValues(key).Inc()
	}

	return o.populate(ctx, d), nil
}

// GetFilteredEvents returns the event-related subset of GetEvents. It
// reads the same cached dataset; no second fetch cycle runs.
func (o *Orchestrator) GetFilteredEvents(ctx context.Context, key string) ([]domain.Event, error) {
	events, err := o.GetEvents(ctx, key)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		if ev.IsEventRelated {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// Refresh force-populates every dataset, bypassing the freshness check but
// writing through the same path. Used by the optional cache-warming loop.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	for _, key := range o.keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.populate(ctx, o.datasets[key])
	}
	return nil
}

// populate runs one full fetch cycle: concurrent fan-out over the
// dataset's adapters, merge, sort, truncate, classify, cache. Adapter
// failures are logged and counted here and degrade to an empty
// contribution; they never abort the cycle.
func (o *Orchestrator) populate(ctx context.Context, d *dataset) []domain.Event {
	start := time.Now()

	results := make([][]domain.Event, len(d.adapters))
	errs := make([]error, len(d.adapters))

	g := new(errgroup.Group)
	g.SetLimit(o.fetchLimit)
	for i, adapter := range d.adapters {
		g.Go(func() error {
			results[i], errs[i] = adapter.Fetch(ctx)
			return nil
		})
	}
	g.Wait()

	var merged []domain.Event
	failed := 0
	for i, adapter := range d.adapters {
		if err := errs[i]; err != nil {
			failed++
			kind := failureKind(err)
			o.logger.Warn("source fetch failed",
				"dataset", d.key,
				"source", adapter.Name(),
				"kind", kind,
				"error", err,
			)
			if o.metrics != nil {
				o.metrics.FetchFailures.WithLabelValues(adapter.Name(), kind).Inc()
			}
			continue
		}
		if o.metrics != nil {
			o.metrics.FetchedItems.WithLabelValues(adapter.Name()).Add(float64(len(results[i])))
		}
		merged = append(merged, results[i]...)
	}

	fetched := len(merged)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if len(merged) > d.maxItems {
		merged = merged[:d.maxItems]
	}
	for i := range merged {
		merged[i].IsEventRelated = o.classifier.IsEventRelated(merged[i].Title + " " + merged[i].Description)
	}

	o.cache.Set(d.key, merged)

	stats := domain.FetchStats{
		Dataset:  d.key,
		Sources:  len(d.adapters),
		Failed:   failed,
		Fetched:  fetched,
		Kept:     len(merged),
		Duration: time.Since(start),
	}
	o.logger.Info("fetch cycle completed",
		"dataset", stats.Dataset,
		"sources", stats.Sources,
		"failed", stats.Failed,
		"fetched", stats.Fetched,
		"kept", stats.Kept,
		"duration", stats.Duration,
	)
	if o.metrics != nil {
		o.metrics.FetchDuration.WithLabelValues(d.key).Observe(stats.Duration.Seconds())
	}

	return merged
}

// failureKind extracts the failure kind for logs and metrics. Errors that
// lost their attribution on the way up count as transport failures.
func failureKind(err error) string {
	var fe *source.FetchError
	if errors.As(err, &fe) {
		return string(fe.Kind)
	}
	return string(source.KindTransport)
}
