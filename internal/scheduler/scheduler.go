// Package scheduler runs the optional cache-warming loop. The pipeline is
// lazy by default; deployments that cannot afford a cold-cache request
// enable this to keep every dataset populated ahead of demand.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// refreshTimeout bounds one warming pass across all datasets.
const refreshTimeout = 2 * time.Minute

// Refresher force-populates every registered dataset.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

func NewScheduler(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start warms the cache once immediately, then on every interval tick
// until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runRefresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if err := s.refresher.Refresh(refreshCtx); err != nil {
		s.logger.Error("cache refresh failed", "error", err)
	}
}
