// Package app implements the sync orchestrator: the heartbeat loop, the
// trend refresh cycle and the watchlist cache.
package app

import (
	"context"

	catalog "github.com/pakpick/market-intel/business/catalog/domain"
	"github.com/pakpick/market-intel/business/sync/domain"
)

// Stats is one raw backend heartbeat payload.
type Stats struct {
	DBMode     string
	LastSync   string
	SyncStatus string
}

// TrendSnapshot is one trend fetch: the listings plus the server's own
// refresh flag.
type TrendSnapshot struct {
	Listings   []catalog.Listing
	Refreshing bool
}

// StatsProvider serves the heartbeat loop.
type StatsProvider interface {
	FetchStats(ctx context.Context) (Stats, error)
}

// TrendSource serves the trend refresh cycle.
type TrendSource interface {
	FetchTrends(ctx context.Context, t catalog.TrendType) (TrendSnapshot, error)
	TriggerRefresh(ctx context.Context) error
}

// WatchlistStore persists watchlist mutations. List is the source of truth;
// mutations are always followed by a reload.
type WatchlistStore interface {
	ListWatchlist(ctx context.Context) ([]catalog.Listing, error)
	AddWatch(ctx context.Context, l catalog.Listing) error
	RemoveWatch(ctx context.Context, id string) error
}

// Reporter receives state changes as they land, for display or export.
type Reporter interface {
	ConnectionChanged(s domain.ConnectionState)
	TrendsChanged(s domain.TrendState)
	WatchlistChanged(w domain.Watchlist)
}
