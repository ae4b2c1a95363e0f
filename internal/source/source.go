// Package source turns heterogeneous upstream announcement pages and feeds
// into the canonical domain.Event shape. Each adapter owns the mapping from
// its source-specific format; nothing downstream touches raw upstream fields.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
	"github.com/KenyYoshimura/event-aggregator-api/internal/httpclient"
)

// Adapter is one upstream source. Fetch returns normalized events in no
// particular order; sorting, classification, and truncation across sources
// belong to the orchestrator. Implementations resolve relative URLs and
// drop title-less records before returning.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Event, error)
}

// Kind buckets fetch failures for logs and metrics. It never changes how a
// failure is handled, only how it is reported.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindParse     Kind = "parse"
)

// FetchError attributes a failure to a source with its failure kind.
type FetchError struct {
	Source string
	Kind   Kind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Classify maps an HTTP-layer error to a failure kind.
func Classify(err error) Kind {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return KindStatus
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}

// fail wraps err as a FetchError attributed to name. An err that already
// carries an attribution is returned unchanged.
func fail(name string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Source: name, Kind: Classify(err), Err: err}
}

// hashID creates a short deterministic ID for records whose source provides
// no usable identifier.
func hashID(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}

// dedupeByID drops records repeating an earlier ID, keeping first
// occurrence. IDs must be unique within one adapter's output.
func dedupeByID(events []domain.Event) []domain.Event {
	seen := make(map[string]struct{}, len(events))
	out := events[:0]
	for _, ev := range events {
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, ev)
	}
	return out
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// sanitizeText strips HTML tags, collapses whitespace, and caps the result
// at maxRunes.
func sanitizeText(s string, maxRunes int) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return truncateRunes(strings.TrimSpace(s), maxRunes)
}

// truncateRunes shortens s to maxRunes runes without breaking UTF-8.
func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
