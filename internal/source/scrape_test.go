package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KenyYoshimura/event-aggregator-api/internal/classify"
)

const scrapePage = `<html><body>
<ul class="news">
  <li><span class="date">2025.9.15</span><a href="/news/100" class="title">駐車場リニューアルのお知らせ</a></li>
  <li><span class="date">2025.10.1</span><a href="/news/101" class="title">秋の収穫祭を開催します</a></li>
  <li><span class="date">2025.8.20</span><a href="/news/99" class="title">夏季休業についてのご案内</a></li>
</ul>
</body></html>`

func newScrapeAdapter(t *testing.T, name, pageURL string, maxItems int) *ScrapeAdapter {
	t.Helper()
	adapter, err := NewScrapeAdapter(name, pageURL, maxItems, nil, nil, testClient(), testLogger())
	require.NoError(t, err)
	return adapter
}

func TestScrapeAdapter_Fetch(t *testing.T) {
	server := serveString(t, scrapePage)

	adapter := newScrapeAdapter(t, "Mall Topics", server.URL, 0)
	assert.Equal(t, "Mall Topics", adapter.Name())

	events, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "秋の収穫祭を開催します", events[0].Title, "sorted newest first regardless of page order")
	assert.Equal(t, "駐車場リニューアルのお知らせ", events[1].Title)
	assert.Equal(t, "夏季休業についてのご案内", events[2].Title)

	for _, ev := range events {
		assert.Equal(t, "Mall Topics", ev.Source)
		assert.Contains(t, ev.URL, server.URL, "relative links resolved against the page URL")
	}
}

func TestScrapeAdapter_MaxItemsKeepsNewest(t *testing.T) {
	server := serveString(t, scrapePage)

	adapter := newScrapeAdapter(t, "Mall Topics", server.URL, 2)
	events, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "秋の収穫祭を開催します", events[0].Title)
	assert.Equal(t, "駐車場リニューアルのお知らせ", events[1].Title)
}

// The page below matches no known container selector; extraction has to
// fall through to the link-pattern scan.
func TestScrapeAdapter_FallsBackToLinkPattern(t *testing.T) {
	page := `<html><body>
<div class="legacy-layout">
  <span>2025.10.1</span>
  <span>[イベント]</span>
  <a href="/news/123">Opening of the new wing</a>
</div>
</body></html>`
	server := serveString(t, page)

	adapter := newScrapeAdapter(t, "Mall Topics", server.URL, 0)
	events, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "Opening of the new wing", ev.Title)
	assert.Equal(t, server.URL+"/news/123", ev.URL)
	assert.Equal(t, "イベント", ev.Category)
	assert.True(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC).Equal(ev.PublishedAt))

	classifier := classify.New(nil)
	assert.True(t, classifier.IsEventRelated(ev.Title+" "+ev.Category))
}

func TestScrapeAdapter_FallsBackToTextBlock(t *testing.T) {
	page := `<html><body><div class="legacy-layout">
2025.10.1
[イベント]
秋の収穫祭を開催します
</div></body></html>`
	server := serveString(t, page)

	adapter := newScrapeAdapter(t, "Mall Topics", server.URL, 0)
	events, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "秋の収穫祭を開催します", events[0].Title)
	assert.Equal(t, server.URL, events[0].URL)
}

func TestScrapeAdapter_NothingMatchesIsEmptyNotError(t *testing.T) {
	server := serveString(t, `<html><body><p>まだお知らせはありません。</p></body></html>`)

	adapter := newScrapeAdapter(t, "Mall Topics", server.URL, 0)
	events, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestScrapeAdapter_StatusFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	adapter := newScrapeAdapter(t, "Mall Topics", server.URL, 0)
	_, err := adapter.Fetch(context.Background())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindStatus, fe.Kind)
	assert.Equal(t, "Mall Topics", fe.Source)
}

func TestScrapeAdapter_DuplicateDetailLinksCollapse(t *testing.T) {
	page := `<html><body><ul class="news">
<li><a href="/news/1" class="title">同じ記事へのリンクです</a></li>
<li><a href="/news/1" class="title">同じ記事へのリンクです</a></li>
</ul></body></html>`
	server := serveString(t, page)

	adapter := newScrapeAdapter(t, "Mall Topics", server.URL, 0)
	events, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	assert.Len(t, events, 1, "records sharing a detail URL keep only the first")
}
