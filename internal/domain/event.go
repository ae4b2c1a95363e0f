package domain

import "time"

// Event is the canonical normalized announcement produced by every source
// adapter. Events are value objects: rebuilt on each fetch cycle, replaced
// wholesale in the cache, never mutated in place.
type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	URL            string    `json:"url"`
	PublishedAt    time.Time `json:"publishedAt"`
	Source         string    `json:"source"`
	Category       string    `json:"category,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	IsEventRelated bool      `json:"isEventRelated"`
}

// FacilityLink is a static reference row for a related facility site.
// No fetch behavior is attached to these.
type FacilityLink struct {
	Name        string `json:"name"`
	URL         string `json:"link"`
	Description string `json:"description,omitempty"`
}
