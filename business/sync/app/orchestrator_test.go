package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/pakpick/market-intel/business/catalog/domain"
	"github.com/pakpick/market-intel/business/sync/domain"
	"github.com/pakpick/market-intel/internal/apperror"
)

type stubStats struct {
	mu    sync.Mutex
	resp  Stats
	err   error
	calls int
}

func (s *stubStats) FetchStats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.resp, s.err
}

func (s *stubStats) set(resp Stats, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resp, s.err = resp, err
}

func (s *stubStats) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubTrends struct {
	mu         sync.Mutex
	snaps      []TrendSnapshot
	fetchErr   error
	triggerErr error
	fetches    int
	triggers   int
}

func (s *stubTrends) FetchTrends(ctx context.Context, t catalog.TrendType) (TrendSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return TrendSnapshot{}, s.fetchErr
	}
	if len(s.snaps) == 0 {
		return TrendSnapshot{}, nil
	}
	snap := s.snaps[0]
	if len(s.snaps) > 1 {
		s.snaps = s.snaps[1:]
	}
	return snap, nil
}

func (s *stubTrends) TriggerRefresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers++
	return s.triggerErr
}

func (s *stubTrends) counts() (fetches, triggers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches, s.triggers
}

type stubWatch struct {
	mu        sync.Mutex
	items     []catalog.Listing
	addErr    error
	removeErr error
	listErr   error
}

func (s *stubWatch) ListWatchlist(ctx context.Context) ([]catalog.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]catalog.Listing, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *stubWatch) AddWatch(ctx context.Context, l catalog.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.items = append(s.items, l)
	return nil
}

func (s *stubWatch) RemoveWatch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	kept := s.items[:0]
	for _, it := range s.items {
		if it.CanonicalID() != id {
			kept = append(kept, it)
		}
	}
	s.items = kept
	return nil
}

type fixture struct {
	orch   *Orchestrator
	clk    *clock.Mock
	stats  *stubStats
	trends *stubTrends
	watch  *stubWatch
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC))

	f := &fixture{
		clk:    clk,
		stats:  &stubStats{resp: Stats{DBMode: "MongoDB Atlas (Cloud)", LastSync: "2026-08-27T08:55:00Z", SyncStatus: "idle"}},
		trends: &stubTrends{},
		watch:  &stubWatch{},
	}
	f.orch = NewOrchestrator(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		clk,
		Config{
			HeartbeatInterval:   5 * time.Second,
			TrendPollInterval:   3 * time.Second,
			TrendRefreshCeiling: 12 * time.Second,
		},
		f.stats, f.trends, f.watch, nil,
	)
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.orch.Start(context.Background()))
	t.Cleanup(f.orch.Stop)
}

// advance moves mock time, yielding on both sides so the loop goroutine can
// register its ticker before time moves and consume the tick afterwards.
func (f *fixture) advance(d time.Duration) {
	time.Sleep(20 * time.Millisecond)
	f.clk.Add(d)
	time.Sleep(20 * time.Millisecond)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func TestHeartbeatFiresImmediatelyThenOnInterval(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	waitFor(t, func() bool { return f.stats.callCount() == 1 }, "immediate heartbeat")
	waitFor(t, func() bool { return !f.orch.Connection().Offline() }, "state installed")

	conn := f.orch.Connection()
	assert.Equal(t, "MongoDB Atlas (Cloud)", conn.DBMode)
	assert.Equal(t, domain.SyncIdle, conn.SyncStatus)
	assert.Equal(t, domain.ModeCloud, conn.Mode())

	f.advance(5 * time.Second)
	waitFor(t, func() bool { return f.stats.callCount() == 2 }, "second heartbeat")

	f.advance(5 * time.Second)
	waitFor(t, func() bool { return f.stats.callCount() == 3 }, "third heartbeat")
}

func TestHeartbeatFailureKeepsLastState(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	waitFor(t, func() bool { return !f.orch.Connection().Offline() }, "first heartbeat lands")
	before := f.orch.Connection()

	f.stats.set(Stats{}, errors.New("connection refused"))
	f.advance(5 * time.Second)
	waitFor(t, func() bool { return f.stats.callCount() >= 2 }, "failed heartbeat attempted")

	after := f.orch.Connection()
	assert.Equal(t, before, after, "failed heartbeat must not touch state")

	f.stats.set(Stats{DBMode: "sqlite", LastSync: "2026-08-27T09:10:00Z", SyncStatus: "running"}, nil)
	f.advance(5 * time.Second)
	waitFor(t, func() bool { return f.orch.Connection().DBMode == "sqlite" }, "recovery overwrites wholesale")

	conn := f.orch.Connection()
	assert.Equal(t, domain.SyncRunning, conn.SyncStatus)
	assert.Equal(t, domain.ModeLocal, conn.Mode())
}

func TestSecondStartRefusedAndStopStillTearsDown(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	waitFor(t, func() bool { return f.stats.callCount() == 1 }, "first heartbeat lands")

	err := f.orch.Start(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	// The rejected Start must not have stolen the run context: Stop still
	// cancels the original cycle.
	f.orch.Stop()
	calls := f.stats.callCount()
	f.advance(5 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, f.stats.callCount(), "heartbeat kept running after stop")
}

func TestStopDiscardsLateHeartbeat(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	waitFor(t, func() bool { return !f.orch.Connection().Offline() }, "first heartbeat lands")
	before := f.orch.Connection()

	f.orch.Stop()
	f.stats.set(Stats{DBMode: "late"}, nil)
	f.advance(5 * time.Second)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, before, f.orch.Connection(), "no writes after stop")
}

func trendListings(titles ...string) []catalog.Listing {
	out := make([]catalog.Listing, len(titles))
	for i, title := range titles {
		out[i] = catalog.Listing{ID: catalog.FlexID(title), Title: title, Price: "100", Platform: catalog.PlatformDaraz}
	}
	return out
}

func TestRefreshTrendsPollsUntilServerFinishes(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.trends.snaps = []TrendSnapshot{
		{Listings: trendListings("early"), Refreshing: true},
		{Listings: nil, Refreshing: true},
		{Listings: trendListings("final-a", "final-b"), Refreshing: false},
	}

	require.NoError(t, f.orch.RefreshTrends(context.Background(), catalog.TrendDaily))
	assert.True(t, f.orch.Trends().IsRefreshing)

	f.advance(3 * time.Second)
	waitFor(t, func() bool { return len(f.orch.Trends().Listings) == 1 }, "first poll replaces snapshot")

	f.advance(3 * time.Second)
	waitFor(t, func() bool {
		fetches, _ := f.trends.counts()
		return fetches >= 2
	}, "second poll ran")
	assert.Len(t, f.orch.Trends().Listings, 1, "empty page must not clobber listings")
	assert.True(t, f.orch.Trends().IsRefreshing)

	f.advance(3 * time.Second)
	waitFor(t, func() bool { return !f.orch.Trends().IsRefreshing }, "server done ends refresh")
	assert.Len(t, f.orch.Trends().Listings, 2)

	_, triggers := f.trends.counts()
	assert.Equal(t, 1, triggers)
}

func TestRefreshTrendsTriggerFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.trends.triggerErr = errors.New("boom")

	err := f.orch.RefreshTrends(context.Background(), catalog.TrendDaily)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRefreshTriggerFailed))
	assert.False(t, f.orch.Trends().IsRefreshing, "failed trigger leaves no refresh behind")

	f.advance(3 * time.Second)
	time.Sleep(50 * time.Millisecond)
	fetches, _ := f.trends.counts()
	assert.Zero(t, fetches, "no poller after a failed trigger")
}

func TestRefreshTrendsRepeatTriggerIgnored(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.trends.snaps = []TrendSnapshot{{Refreshing: true}}

	require.NoError(t, f.orch.RefreshTrends(context.Background(), catalog.TrendDaily))
	require.NoError(t, f.orch.RefreshTrends(context.Background(), catalog.TrendDaily))

	_, triggers := f.trends.counts()
	assert.Equal(t, 1, triggers, "second refresh while running is a no-op")
}

func TestRefreshTrendsCeilingForcesFlagDown(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.trends.snaps = []TrendSnapshot{{Listings: trendListings("stuck"), Refreshing: true}}

	require.NoError(t, f.orch.RefreshTrends(context.Background(), catalog.TrendDaily))

	// Ceiling is 12s with a 3s poll; step past it.
	for i := 0; i < 4; i++ {
		f.advance(3 * time.Second)
	}
	waitFor(t, func() bool { return !f.orch.Trends().IsRefreshing }, "ceiling clears the flag")
	assert.Len(t, f.orch.Trends().Listings, 1, "data fetched before the ceiling is kept")
}

func TestRefreshTrendsPollFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.trends.fetchErr = errors.New("poll down")

	require.NoError(t, f.orch.RefreshTrends(context.Background(), catalog.TrendDaily))
	f.advance(3 * time.Second)
	waitFor(t, func() bool { return !f.orch.Trends().IsRefreshing }, "poll failure ends refresh")
}

func TestLoadTrendsJoinsServerSideRefresh(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.trends.snaps = []TrendSnapshot{
		{Listings: trendListings("seed"), Refreshing: true},
		{Listings: trendListings("done"), Refreshing: false},
	}

	require.NoError(t, f.orch.LoadTrends(context.Background(), catalog.TrendSeasonal))
	assert.True(t, f.orch.Trends().IsRefreshing, "server-side refresh adopts the flag")
	assert.Len(t, f.orch.Trends().Listings, 1)

	_, triggers := f.trends.counts()
	assert.Zero(t, triggers, "joining a refresh must not re-trigger it")

	f.advance(3 * time.Second)
	waitFor(t, func() bool { return !f.orch.Trends().IsRefreshing }, "poller winds the refresh down")
}

func TestWatchlistWriteThroughThenReload(t *testing.T) {
	f := newFixture(t)
	f.watch.items = trendListings("existing")
	f.start(t)

	waitFor(t, func() bool { return f.orch.Watchlist().Len() == 1 }, "initial load")
	assert.True(t, f.orch.Watchlist().Contains("existing"))

	added := catalog.Listing{ID: "new-1", Title: "New", Price: "250", Platform: catalog.PlatformMarkaz}
	require.NoError(t, f.orch.AddToWatchlist(context.Background(), added))

	w := f.orch.Watchlist()
	assert.Equal(t, 2, w.Len())
	assert.True(t, w.Contains("new-1"))
	assert.True(t, w.Contains("existing"))

	require.NoError(t, f.orch.RemoveFromWatchlist(context.Background(), "existing"))
	w = f.orch.Watchlist()
	assert.Equal(t, 1, w.Len())
	assert.False(t, w.Contains("existing"))
	assert.True(t, w.Contains("new-1"))
}

func TestToggleWatchFlipsMembership(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	l := catalog.Listing{ID: "flip", Title: "Flip", Price: "500", Platform: catalog.PlatformDaraz}
	require.NoError(t, f.orch.ToggleWatch(context.Background(), l))
	assert.True(t, f.orch.Watchlist().Contains("flip"), "first toggle adds")

	require.NoError(t, f.orch.ToggleWatch(context.Background(), l))
	assert.False(t, f.orch.Watchlist().Contains("flip"), "second toggle removes")
	assert.Zero(t, f.orch.Watchlist().Len())
}

func TestWatchlistMutationFailureLeavesCacheIntact(t *testing.T) {
	f := newFixture(t)
	f.watch.items = trendListings("kept")
	f.start(t)
	waitFor(t, func() bool { return f.orch.Watchlist().Len() == 1 }, "initial load")

	f.watch.addErr = errors.New("store down")
	err := f.orch.AddToWatchlist(context.Background(), catalog.Listing{ID: "x", Price: "1"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeWatchMutationFailed))

	w := f.orch.Watchlist()
	assert.Equal(t, 1, w.Len())
	assert.True(t, w.Contains("kept"))
}

func TestWatchlistRejectsListingWithoutID(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	err := f.orch.AddToWatchlist(context.Background(), catalog.Listing{Title: "no id"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))

	err = f.orch.RemoveFromWatchlist(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}
