package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	catalog "github.com/pakpick/market-intel/business/catalog/domain"
	"github.com/pakpick/market-intel/business/sync/domain"
	"github.com/pakpick/market-intel/internal/apperror"
	"github.com/pakpick/market-intel/internal/sched"
)

// Config carries the orchestrator's timing knobs.
type Config struct {
	// HeartbeatInterval is the period of the backend stats poll.
	HeartbeatInterval time.Duration

	// TrendPollInterval is the period of the poll that follows a refresh
	// trigger.
	TrendPollInterval time.Duration

	// TrendRefreshCeiling hard-stops a refresh cycle that never completes,
	// so the refreshing flag cannot stay up forever.
	TrendRefreshCeiling time.Duration
}

// Orchestrator owns the live view of the backend: connection state from the
// heartbeat, the current trend snapshot, and the watchlist cache. All state
// transitions happen here; gateways stay stateless.
type Orchestrator struct {
	log *slog.Logger
	clk clock.Clock
	cfg Config

	stats    StatsProvider
	trends   TrendSource
	watch    WatchlistStore
	reporter Reporter

	heartbeat *sched.Task
	poll      *sched.Task

	mu        sync.RWMutex
	runCtx    context.Context
	runCancel context.CancelFunc
	conn      domain.ConnectionState
	trend     domain.TrendState
	watchlist domain.Watchlist
}

// NewOrchestrator wires an orchestrator. Reporter may be nil.
func NewOrchestrator(
	log *slog.Logger,
	clk clock.Clock,
	cfg Config,
	stats StatsProvider,
	trends TrendSource,
	watch WatchlistStore,
	reporter Reporter,
) *Orchestrator {
	return &Orchestrator{
		log:       log,
		clk:       clk,
		cfg:       cfg,
		stats:     stats,
		trends:    trends,
		watch:     watch,
		reporter:  reporter,
		heartbeat: sched.New(clk),
		poll:      sched.New(clk),
		watchlist: domain.NewWatchlist(nil),
	}
}

// Start launches the heartbeat loop and primes the watchlist cache. The
// first heartbeat fires immediately, then every HeartbeatInterval.
func (o *Orchestrator) Start(ctx context.Context) error {
	// Refuse before touching runCtx; a second Start must not replace the
	// cancel func a live cycle still depends on.
	if o.heartbeat.IsRunning() {
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("orchestrator already started"))
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.runCtx = runCtx
	o.runCancel = cancel
	o.mu.Unlock()

	if err := o.ReloadWatchlist(runCtx); err != nil {
		// The backend may still be warming up; the cache stays empty until
		// the next successful mutation reload.
		o.log.Warn("initial watchlist load failed", "error", err)
	}

	if !o.heartbeat.Start(runCtx, sched.Options{
		Interval:  o.cfg.HeartbeatInterval,
		Immediate: true,
	}, o.heartbeatTick) {
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("orchestrator already started"))
	}

	o.log.Info("sync orchestrator started",
		"heartbeat_interval", o.cfg.HeartbeatInterval,
		"trend_poll_interval", o.cfg.TrendPollInterval,
		"trend_refresh_ceiling", o.cfg.TrendRefreshCeiling,
	)
	return nil
}

// Stop tears down both loops and waits for them to exit. In-flight fetches
// that land after Stop are discarded, never written into state.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.runCancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	o.poll.Stop()
	o.heartbeat.Stop()
	o.log.Info("sync orchestrator stopped")
}

// Connection returns the latest heartbeat observation.
func (o *Orchestrator) Connection() domain.ConnectionState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.conn
}

// Trends returns the current trend snapshot.
func (o *Orchestrator) Trends() domain.TrendState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return domain.TrendState{
		Listings:     append([]catalog.Listing(nil), o.trend.Listings...),
		IsRefreshing: o.trend.IsRefreshing,
		UpdatedAt:    o.trend.UpdatedAt,
	}
}

// Watchlist returns the current watchlist snapshot.
func (o *Orchestrator) Watchlist() domain.Watchlist {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.watchlist
}

func (o *Orchestrator) heartbeatTick(ctx context.Context) bool {
	stats, err := o.stats.FetchStats(ctx)
	if err != nil {
		// A failed heartbeat leaves the last known state intact.
		o.log.Warn("heartbeat failed", "error", err)
		return true
	}

	state := domain.ConnectionState{
		DBMode:     stats.DBMode,
		LastSync:   stats.LastSync,
		SyncStatus: domain.ParseSyncStatus(stats.SyncStatus),
		ObservedAt: o.clk.Now(),
	}
	o.applyConnection(ctx, state)
	return true
}

// applyConnection overwrites the connection state wholesale. A response that
// lands after the loop's context ended is stale and must not win.
func (o *Orchestrator) applyConnection(ctx context.Context, s domain.ConnectionState) {
	if ctx.Err() != nil {
		return
	}
	o.mu.Lock()
	o.conn = s
	o.mu.Unlock()
	if o.reporter != nil {
		o.reporter.ConnectionChanged(s)
	}
}

// LoadTrends fetches the trend feed once and installs it. When the server
// reports a refresh already underway, the bounded poller is started without
// issuing another trigger, so the refreshing flag still cannot get stuck.
func (o *Orchestrator) LoadTrends(ctx context.Context, t catalog.TrendType) error {
	snap, err := o.trends.FetchTrends(ctx, t)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeTrendsFetchFailed, string(t))
	}

	o.mu.Lock()
	if len(snap.Listings) > 0 {
		o.trend.Listings = snap.Listings
		o.trend.UpdatedAt = o.clk.Now()
	}
	alreadyPolling := o.trend.IsRefreshing
	if snap.Refreshing && !alreadyPolling {
		o.trend.IsRefreshing = true
	}
	changed := o.trend
	o.mu.Unlock()

	if o.reporter != nil {
		o.reporter.TrendsChanged(changed)
	}
	if snap.Refreshing && !alreadyPolling {
		o.startPolling(t)
	}
	return nil
}

// RefreshTrends asks the backend to rebuild the trend feed, then polls until
// the server reports the refresh finished. A refresh already underway makes
// this a no-op; a failed trigger aborts the cycle before any poller starts.
func (o *Orchestrator) RefreshTrends(ctx context.Context, t catalog.TrendType) error {
	o.mu.Lock()
	if o.trend.IsRefreshing {
		o.mu.Unlock()
		o.log.Debug("trend refresh already in progress")
		return nil
	}
	o.trend.IsRefreshing = true
	o.mu.Unlock()

	if err := o.trends.TriggerRefresh(ctx); err != nil {
		o.setRefreshing(false)
		return apperror.Wrap(err, apperror.CodeRefreshTriggerFailed, string(t))
	}

	o.startPolling(t)
	return nil
}

func (o *Orchestrator) startPolling(t catalog.TrendType) {
	o.mu.RLock()
	runCtx := o.runCtx
	o.mu.RUnlock()
	if runCtx == nil {
		runCtx = context.Background()
	}

	opts := sched.Options{
		Interval:    o.cfg.TrendPollInterval,
		MaxDuration: o.cfg.TrendRefreshCeiling,
		OnStop: func(reason sched.StopReason) {
			o.setRefreshing(false)
			if reason == sched.StopCeiling {
				o.log.Warn("trend refresh hit the time ceiling",
					"ceiling", o.cfg.TrendRefreshCeiling)
			}
		},
	}
	if o.poll.Start(runCtx, opts, func(ctx context.Context) bool {
		return o.pollTick(ctx, t)
	}) {
		return
	}

	// The previous poller has run OnStop but not yet fully wound down.
	// Wait it out and start fresh rather than leaving the flag up with no
	// poller behind it.
	o.poll.Stop()
	o.setRefreshing(true)
	if !o.poll.Start(runCtx, opts, func(ctx context.Context) bool {
		return o.pollTick(ctx, t)
	}) {
		o.setRefreshing(false)
	}
}

func (o *Orchestrator) pollTick(ctx context.Context, t catalog.TrendType) bool {
	snap, err := o.trends.FetchTrends(ctx, t)
	if err != nil {
		o.log.Warn("trend poll failed, aborting refresh", "error", err)
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	o.mu.Lock()
	if len(snap.Listings) > 0 {
		// Results replace the snapshot wholesale; an empty page never
		// clobbers data we already have.
		o.trend.Listings = snap.Listings
		o.trend.UpdatedAt = o.clk.Now()
	}
	changed := o.trend
	o.mu.Unlock()

	if o.reporter != nil {
		o.reporter.TrendsChanged(changed)
	}

	if !snap.Refreshing {
		o.log.Info("trend refresh finished", "listings", len(snap.Listings))
		return false
	}
	return true
}

func (o *Orchestrator) setRefreshing(v bool) {
	o.mu.Lock()
	o.trend.IsRefreshing = v
	changed := o.trend
	o.mu.Unlock()
	if o.reporter != nil {
		o.reporter.TrendsChanged(changed)
	}
}

// ToggleWatch adds the listing when it is not on the watchlist and removes
// it when it is, then reloads the cache either way.
func (o *Orchestrator) ToggleWatch(ctx context.Context, l catalog.Listing) error {
	if o.Watchlist().Contains(l.CanonicalID()) {
		return o.RemoveFromWatchlist(ctx, l.CanonicalID())
	}
	return o.AddToWatchlist(ctx, l)
}

// AddToWatchlist persists the listing, then reloads the cache from the
// store. The reload runs even when the mutation failed, so the cache always
// reflects what the store actually holds.
func (o *Orchestrator) AddToWatchlist(ctx context.Context, l catalog.Listing) error {
	if l.CanonicalID() == "" {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("listing has no id"))
	}
	if err := o.watch.AddWatch(ctx, l); err != nil {
		_ = o.ReloadWatchlist(ctx)
		return apperror.Wrap(err, apperror.CodeWatchMutationFailed, "add")
	}
	return o.ReloadWatchlist(ctx)
}

// RemoveFromWatchlist removes the listing by id, then reloads the cache.
// Like AddToWatchlist, a failed mutation still reloads.
func (o *Orchestrator) RemoveFromWatchlist(ctx context.Context, id string) error {
	if id == "" {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("empty watchlist id"))
	}
	if err := o.watch.RemoveWatch(ctx, id); err != nil {
		_ = o.ReloadWatchlist(ctx)
		return apperror.Wrap(err, apperror.CodeWatchMutationFailed, "remove")
	}
	return o.ReloadWatchlist(ctx)
}

// ReloadWatchlist replaces the cache with the store's current contents.
func (o *Orchestrator) ReloadWatchlist(ctx context.Context) error {
	items, err := o.watch.ListWatchlist(ctx)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeWatchReloadFailed, "")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	w := domain.NewWatchlist(items)
	o.mu.Lock()
	o.watchlist = w
	o.mu.Unlock()
	if o.reporter != nil {
		o.reporter.WatchlistChanged(w)
	}
	return nil
}
