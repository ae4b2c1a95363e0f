package classify

import "strings"

// DefaultKeywords is the curated bilingual list used when no keyword set is
// configured. Matching is plain substring membership, so entries are kept
// specific enough not to fire on ordinary corporate notices.
var DefaultKeywords = []string{
	"event",
	"campaign",
	"opening",
	"sale",
	"fair",
	"festival",
	"workshop",
	"exhibition",
	"limited",
	"pop-up",
	"イベント",
	"キャンペーン",
	"オープン",
	"開催",
	"セール",
	"フェア",
	"フェスタ",
	"ワークショップ",
	"展示",
	"催事",
	"限定",
	"ポップアップ",
	"先行販売",
}

// Classifier decides whether a piece of announcement text is event-related.
// It is a pure keyword matcher: no scoring, no stemming, no locale handling
// beyond lowercasing.
type Classifier struct {
	keywords []string
}

// New creates a Classifier with the given keyword set. An empty set selects
// DefaultKeywords. Keywords are trimmed and lowercased once at construction.
func New(keywords []string) *Classifier {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Classifier{keywords: lowered}
}

// IsEventRelated reports whether text contains any configured keyword.
// Safe for any input including empty and non-ASCII strings.
func (c *Classifier) IsEventRelated(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
