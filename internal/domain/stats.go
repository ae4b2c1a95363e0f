package domain

import "time"

// FetchStats holds statistics about one cache-population cycle.
type FetchStats struct {
	Dataset  string
	Sources  int
	Failed   int
	Fetched  int
	Kept     int
	Duration time.Duration
}
