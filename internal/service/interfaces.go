package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
)

// Adapter is one registered upstream source. source.Adapter satisfies it;
// the orchestrator never needs more than the fetch contract.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Event, error)
}

// Cache stores the finished result of a fetch cycle per dataset key.
type Cache interface {
	Get(key string) ([]domain.Event, bool)
	Set(key string, events []domain.Event)
}

// Classifier marks merged records as event-related or not.
type Classifier interface {
	IsEventRelated(text string) bool
}
