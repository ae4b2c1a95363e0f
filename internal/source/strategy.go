package source

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
)

// Strategy extracts events from a parsed HTML page. A strategy that finds
// nothing returns an empty slice, never an error; the chain driver falls
// through to the next one. Records carry no Source label; the adapter tags
// them after extraction.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, base *url.URL, fetchTime time.Time) []domain.Event
}

// defaultContainerSelectors are the item containers seen across the target
// pages, most specific first.
var defaultContainerSelectors = []string{
	"article.news-item",
	"li.news-item",
	".news-list li",
	"ul.news > li",
	".p-news__item",
}

var (
	titleSelectors       = []string{".title", ".news-title", "h2", "h3", "dt", "a"}
	dateSelectors        = []string{"time", ".date", ".news-date", "dd"}
	categorySelectors    = []string{".category", ".tag", ".label"}
	descriptionSelectors = []string{".description", ".summary", ".excerpt"}
)

// SelectorStrategy reads items out of the first candidate container
// selector that matches at least one element. Field values come from
// nested candidate selectors, falling back to the container's own text
// for dates and category tags.
type SelectorStrategy struct {
	containers []string
}

// NewSelectorStrategy creates a SelectorStrategy. An empty container list
// selects the defaults.
func NewSelectorStrategy(containers []string) *SelectorStrategy {
	if len(containers) == 0 {
		containers = defaultContainerSelectors
	}
	return &SelectorStrategy{containers: containers}
}

func (s *SelectorStrategy) Name() string { return "selector" }

func (s *SelectorStrategy) Extract(doc *goquery.Document, base *url.URL, fetchTime time.Time) []domain.Event {
	var items *goquery.Selection
	for _, sel := range s.containers {
		if found := doc.Find(sel); found.Length() > 0 {
			items = found
			break
		}
	}
	if items == nil {
		return nil
	}

	var events []domain.Event
	items.Each(func(_ int, item *goquery.Selection) {
		title := stripCategoryTags(firstText(item, titleSelectors))
		if title == "" {
			return
		}

		href, _ := item.Find("a[href]").First().Attr("href")

		published := fetchTime
		if t, ok := itemDate(item); ok {
			published = t
		}

		category := firstText(item, categorySelectors)
		if category == "" {
			category = parseCategoryTag(item.Text())
		}

		abs := resolveURL(base, href)
		events = append(events, domain.Event{
			ID:          scrapeID(abs, title, published),
			Title:       title,
			Description: firstText(item, descriptionSelectors),
			URL:         abs,
			PublishedAt: published,
			Category:    category,
		})
	})
	return events
}

// itemDate looks for a date on the item: a <time datetime> attribute first,
// then the date sub-element candidates, then the item's whole text.
func itemDate(item *goquery.Selection) (time.Time, bool) {
	if dt, ok := item.Find("time").First().Attr("datetime"); ok {
		if t, ok := parseDateToken(dt); ok {
			return t, true
		}
	}
	if text := firstText(item, dateSelectors); text != "" {
		if t, ok := parseDateToken(text); ok {
			return t, true
		}
	}
	return parseDateToken(item.Text())
}

// defaultLinkPattern matches announcement detail pages like /news/123.
var defaultLinkPattern = regexp.MustCompile(`/news/\d+`)

// LinkPatternStrategy scans every anchor on the page for detail-page hrefs.
// It is the fallback for pages whose list markup matches no known container
// selector: the anchors still point somewhere recognizable even when the
// structure around them is alien.
type LinkPatternStrategy struct {
	pattern *regexp.Regexp
}

// NewLinkPatternStrategy creates a LinkPatternStrategy. A nil pattern
// selects the default /news/<id> form.
func NewLinkPatternStrategy(pattern *regexp.Regexp) *LinkPatternStrategy {
	if pattern == nil {
		pattern = defaultLinkPattern
	}
	return &LinkPatternStrategy{pattern: pattern}
}

func (s *LinkPatternStrategy) Name() string { return "link-pattern" }

func (s *LinkPatternStrategy) Extract(doc *goquery.Document, base *url.URL, fetchTime time.Time) []domain.Event {
	var events []domain.Event
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !s.pattern.MatchString(href) {
			return
		}
		title := stripCategoryTags(strings.TrimSpace(link.Text()))
		if !longEnoughTitle(title) {
			return
		}

		// Date and category live in the text around the anchor, not in it.
		surrounding := surroundingText(link)
		published := fetchTime
		if t, ok := parseDateToken(surrounding); ok {
			published = t
		}

		category := parseCategoryTag(link.Text())
		if category == "" {
			category = parseCategoryTag(surrounding)
		}

		abs := resolveURL(base, href)
		events = append(events, domain.Event{
			ID:          scrapeID(abs, title, published),
			Title:       title,
			URL:         abs,
			PublishedAt: published,
			Category:    category,
		})
	})
	return events
}

// surroundingText returns the anchor's parent text, widening one level
// when the parent holds nothing beyond the anchor itself. Widening stops
// before the document body: at that point there is no meaningful "block
// around the link" left and any date found would belong to something else.
func surroundingText(link *goquery.Selection) string {
	parent := link.Parent()
	text := strings.TrimSpace(parent.Text())
	if text == strings.TrimSpace(link.Text()) {
		if gp := parent.Parent(); gp.Length() > 0 && !gp.Is("body") && !gp.Is("html") {
			text = strings.TrimSpace(gp.Text())
		}
	}
	return text
}

// TextBlockStrategy is the last resort for pages whose markup defeats both
// the selector and link scans. It walks the page's visible text line by
// line looking for a date, an optional bracketed category, and a title, in
// that order, emitting one record per completed group.
type TextBlockStrategy struct{}

func (s *TextBlockStrategy) Name() string { return "text-block" }

func (s *TextBlockStrategy) Extract(doc *goquery.Document, base *url.URL, fetchTime time.Time) []domain.Event {
	body := doc.Find("body")
	if body.Length() == 0 {
		return nil
	}

	pageURL := ""
	if base != nil {
		pageURL = base.String()
	}

	var events []domain.Event
	var (
		published time.Time
		haveDate  bool
		category  string
	)
	emit := func(title string) {
		events = append(events, domain.Event{
			ID:          scrapeID("", title, published),
			Title:       title,
			URL:         pageURL,
			PublishedAt: published,
			Category:    category,
		})
		haveDate, category = false, ""
	}

	for _, raw := range strings.Split(body.Text(), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if t, ok := parseDateToken(line); ok {
			published, haveDate = t, true
			category = parseCategoryTag(line)
			continue
		}
		if !haveDate {
			continue
		}

		if tag := parseCategoryTag(line); tag != "" {
			rest := stripCategoryTags(line)
			if !longEnoughTitle(rest) {
				category = tag
				continue
			}
			// Tag and title share the line.
			category = tag
			emit(rest)
			continue
		}

		if longEnoughTitle(line) {
			emit(line)
		}
	}
	return events
}

// firstText returns the first non-empty trimmed text among the candidate
// selectors under s.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(s.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// resolveURL makes href absolute against base. Unparsable hrefs resolve to
// empty rather than leaking a relative URL downstream.
func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return base.ResolveReference(ref).String()
}

// scrapeID keys a scraped record by its detail URL when one exists, else by
// a hash of title and date.
func scrapeID(absURL, title string, published time.Time) string {
	if absURL != "" {
		return absURL
	}
	return hashID(title + published.Format(time.RFC3339))
}
