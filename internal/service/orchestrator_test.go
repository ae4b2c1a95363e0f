package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
	"github.com/KenyYoshimura/event-aggregator-api/internal/service/mocks"
	"github.com/KenyYoshimura/event-aggregator-api/internal/source"
)

var t0 = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

type OrchestratorTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	cache      *mocks.MockCache
	classifier *mocks.MockClassifier

	orch   *Orchestrator
	logger *slog.Logger
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.cache = mocks.NewMockCache(s.ctrl)
	s.classifier = mocks.NewMockClassifier(s.ctrl)
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.orch = New(s.cache, s.classifier, s.logger)
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

// newAdapter returns a mock adapter whose Name is always available.
func (s *OrchestratorTestSuite) newAdapter(name string) *mocks.MockAdapter {
	adapter := mocks.NewMockAdapter(s.ctrl)
	adapter.EXPECT().Name().Return(name).AnyTimes()
	return adapter
}

// expectKeywordClassifier wires a classifier that fires on "festival".
func (s *OrchestratorTestSuite) expectKeywordClassifier() {
	s.classifier.EXPECT().IsEventRelated(gomock.Any()).DoAndReturn(func(text string) bool {
		return strings.Contains(strings.ToLower(text), "festival")
	}).AnyTimes()
}

func (s *OrchestratorTestSuite) TestGetEvents_CacheHitSkipsAdapters() {
	cached := []domain.Event{{ID: "a1", Title: "Autumn Festival", PublishedAt: t0}}
	adapter := s.newAdapter("mall-news")
	adapter.EXPECT().Fetch(gomock.Any()).Times(0)

	s.Require().NoError(s.orch.RegisterDataset("events", 100, adapter))
	s.cache.EXPECT().Get("events").Return(cached, true)

	events, err := s.orch.GetEvents(context.Background(), "events")

	s.NoError(err)
	s.Equal(cached, events)
}

func (s *OrchestratorTestSuite) TestGetEvents_CacheMissFetchesMergesSorts() {
	ctx := context.Background()

	a := s.newAdapter("mall-news")
	a.EXPECT().Fetch(ctx).Return([]domain.Event{
		{ID: "a1", Title: "Renovation notice", PublishedAt: t0.AddDate(0, 0, -3)},
		{ID: "a2", Title: "Autumn Festival opens", PublishedAt: t0},
	}, nil)

	b := s.newAdapter("press")
	b.EXPECT().Fetch(ctx).Return([]domain.Event{
		{ID: "b1", Title: "Quarterly report", PublishedAt: t0.AddDate(0, 0, -1)},
	}, nil)

	s.Require().NoError(s.orch.RegisterDataset("events", 100, a, b))
	s.expectKeywordClassifier()
	s.cache.EXPECT().Get("events").Return(nil, false)

	var stored []domain.Event
	s.cache.EXPECT().Set("events", gomock.Any()).Do(func(_ string, events []domain.Event) {
		stored = events
	})

	events, err := s.orch.GetEvents(ctx, "events")

	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal([]string{"a2", "b1", "a1"}, []string{events[0].ID, events[1].ID, events[2].ID})
	s.True(events[0].IsEventRelated)
	s.False(events[1].IsEventRelated)
	s.Equal(events, stored, "the returned cycle result is what got cached")
}

func (s *OrchestratorTestSuite) TestGetEvents_FailingAdapterDegradesToEmpty() {
	ctx := context.Background()

	broken := s.newAdapter("flaky")
	broken.EXPECT().Fetch(ctx).Return(nil, &source.FetchError{
		Source: "flaky",
		Kind:   source.KindTimeout,
		Err:    context.DeadlineExceeded,
	})

	healthy := s.newAdapter("press")
	healthy.EXPECT().Fetch(ctx).Return([]domain.Event{
		{ID: "p1", Title: "Summer Festival campaign", PublishedAt: t0},
		{ID: "p2", Title: "New tenant announced", PublishedAt: t0.AddDate(0, 0, -1)},
	}, nil)

	s.Require().NoError(s.orch.RegisterDataset("events", 100, broken, healthy))
	s.expectKeywordClassifier()
	s.cache.EXPECT().Get("events").Return(nil, false)
	s.cache.EXPECT().Set("events", gomock.Any())

	events, err := s.orch.GetEvents(ctx, "events")

	s.NoError(err)
	s.Len(events, 2, "the failing adapter contributes nothing, the healthy one everything")
}

func (s *OrchestratorTestSuite) TestGetEvents_AllAdaptersFailingYieldsEmptyNotError() {
	ctx := context.Background()

	a := s.newAdapter("down-1")
	a.EXPECT().Fetch(ctx).Return(nil, &source.FetchError{Source: "down-1", Kind: source.KindStatus})
	b := s.newAdapter("down-2")
	b.EXPECT().Fetch(ctx).Return(nil, &source.FetchError{Source: "down-2", Kind: source.KindTransport})

	s.Require().NoError(s.orch.RegisterDataset("events", 100, a, b))
	s.cache.EXPECT().Get("events").Return(nil, false)
	s.cache.EXPECT().Set("events", gomock.Any())

	events, err := s.orch.GetEvents(ctx, "events")

	s.NoError(err)
	s.Empty(events)
}

func (s *OrchestratorTestSuite) TestGetEvents_TruncatesToMaxItems() {
	ctx := context.Background()

	many := make([]domain.Event, 10)
	for i := range many {
		many[i] = domain.Event{
			ID:          string(rune('a' + i)),
			Title:       "Announcement",
			PublishedAt: t0.Add(-time.Duration(i) * time.Hour),
		}
	}
	adapter := s.newAdapter("mall-news")
	adapter.EXPECT().Fetch(ctx).Return(many, nil)

	s.Require().NoError(s.orch.RegisterDataset("events", 4, adapter))
	s.expectKeywordClassifier()
	s.cache.EXPECT().Get("events").Return(nil, false)
	s.cache.EXPECT().Set("events", gomock.Any())

	events, err := s.orch.GetEvents(ctx, "events")

	s.Require().NoError(err)
	s.Require().Len(events, 4)
	for i := 1; i < len(events); i++ {
		s.False(events[i].PublishedAt.After(events[i-1].PublishedAt), "order must be non-increasing")
	}
}

func (s *OrchestratorTestSuite) TestGetEvents_StableSortKeepsInputOrderOnTies() {
	ctx := context.Background()

	adapter := s.newAdapter("mall-news")
	adapter.EXPECT().Fetch(ctx).Return([]domain.Event{
		{ID: "first", Title: "Morning notice", PublishedAt: t0},
		{ID: "second", Title: "Afternoon notice", PublishedAt: t0},
	}, nil)

	s.Require().NoError(s.orch.RegisterDataset("events", 100, adapter))
	s.expectKeywordClassifier()
	s.cache.EXPECT().Get("events").Return(nil, false)
	s.cache.EXPECT().Set("events", gomock.Any())

	events, err := s.orch.GetEvents(ctx, "events")

	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("first", events[0].ID)
	s.Equal("second", events[1].ID)
}

func (s *OrchestratorTestSuite) TestGetEvents_UnknownDataset() {
	_, err := s.orch.GetEvents(context.Background(), "nope")
	s.ErrorIs(err, ErrUnknownDataset)
}

func (s *OrchestratorTestSuite) TestGetFilteredEvents_ReusesCachedDataset() {
	cached := []domain.Event{
		{ID: "a1", Title: "Autumn Festival", PublishedAt: t0, IsEventRelated: true},
		{ID: "a2", Title: "Parking notice", PublishedAt: t0.AddDate(0, 0, -1), IsEventRelated: false},
	}
	adapter := s.newAdapter("mall-news")
	adapter.EXPECT().Fetch(gomock.Any()).Times(0)

	s.Require().NoError(s.orch.RegisterDataset("events", 100, adapter))
	s.cache.EXPECT().Get("events").Return(cached, true)

	events, err := s.orch.GetFilteredEvents(context.Background(), "events")

	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("a1", events[0].ID)
}

func (s *OrchestratorTestSuite) TestRefresh_PopulatesEveryDataset() {
	ctx := context.Background()

	a := s.newAdapter("mall-news")
	a.EXPECT().Fetch(ctx).Return([]domain.Event{{ID: "a1", Title: "Autumn Festival", PublishedAt: t0}}, nil)
	b := s.newAdapter("press")
	b.EXPECT().Fetch(ctx).Return(nil, nil)

	s.Require().NoError(s.orch.RegisterDataset("events", 100, a))
	s.Require().NoError(s.orch.RegisterDataset("press", 100, b))
	s.expectKeywordClassifier()
	s.cache.EXPECT().Set("events", gomock.Any())
	s.cache.EXPECT().Set("press", gomock.Any())

	s.NoError(s.orch.Refresh(ctx))
}

func (s *OrchestratorTestSuite) TestRegisterDataset_Validation() {
	adapter := s.newAdapter("mall-news")

	s.Error(s.orch.RegisterDataset("", 100, adapter))
	s.Error(s.orch.RegisterDataset("events", 100))

	s.Require().NoError(s.orch.RegisterDataset("events", 100, adapter))
	s.Error(s.orch.RegisterDataset("events", 100, adapter), "duplicate keys are a wiring mistake")
}
