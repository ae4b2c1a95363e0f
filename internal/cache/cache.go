package cache

import (
	"sync"
	"time"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
)

type entry struct {
	events    []domain.Event
	expiresAt time.Time
}

// Cache is an in-memory TTL cache keyed by dataset name. Expiry is lazy:
// an expired entry reads as absent and is overwritten by the next Set.
// There is no background reaper; the working set is a handful of datasets.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	now func() time.Time
}

// New creates a Cache whose entries stay fresh for ttl after each Set.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the events stored under key if the entry is still fresh.
func (c *Cache) Get(key string) ([]domain.Event, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.events, true
}

// Set stores events under key, replacing any previous entry wholesale and
// restarting its TTL.
func (c *Cache) Set(key string, events []domain.Event) {
	expiresAt := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{events: events, expiresAt: expiresAt}
}
