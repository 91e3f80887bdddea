// Package domain holds the connection, trend and watchlist state the sync
// orchestrator maintains.
package domain

import (
	"strings"
	"time"

	catalog "github.com/pakpick/market-intel/business/catalog/domain"
)

// SyncStatus is the backend's reported pipeline state.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncRunning SyncStatus = "running"
	SyncError   SyncStatus = "error"
	SyncUnknown SyncStatus = "unknown"
)

// ParseSyncStatus normalizes a raw status string.
func ParseSyncStatus(raw string) SyncStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "idle":
		return SyncIdle
	case "running", "syncing", "in_progress":
		return SyncRunning
	case "error", "failed":
		return SyncError
	default:
		return SyncUnknown
	}
}

// StorageMode classifies where the backend keeps its data.
type StorageMode string

const (
	ModeCloud   StorageMode = "cloud"
	ModeLocal   StorageMode = "local"
	ModeOffline StorageMode = "offline"
)

// ConnectionState is one heartbeat observation of the backend. The zero
// value means no heartbeat has succeeded yet.
type ConnectionState struct {
	DBMode     string
	LastSync   string
	SyncStatus SyncStatus
	ObservedAt time.Time
}

// Offline reports whether any heartbeat has ever landed.
func (s ConnectionState) Offline() bool {
	return s.ObservedAt.IsZero()
}

// Mode classifies the backend storage from the reported db_mode string.
// Anything mentioning a cloud store counts as cloud, everything else the
// backend reports is local, and no report at all is offline.
func (s ConnectionState) Mode() StorageMode {
	if s.Offline() {
		return ModeOffline
	}
	mode := strings.ToLower(s.DBMode)
	if strings.Contains(mode, "cloud") || strings.Contains(mode, "atlas") || strings.Contains(mode, "mongo") {
		return ModeCloud
	}
	return ModeLocal
}

// TrendState is the latest trend snapshot plus the refresh flag.
type TrendState struct {
	Listings     []catalog.Listing
	IsRefreshing bool
	UpdatedAt    time.Time
}

// Watchlist is an immutable snapshot of saved listings with a derived id
// index. Construct it only through NewWatchlist so the index always matches
// the canonical ids of the items.
type Watchlist struct {
	items   []catalog.Listing
	idIndex map[string]struct{}
}

// NewWatchlist builds a watchlist snapshot from the canonical item list.
func NewWatchlist(items []catalog.Listing) Watchlist {
	idx := make(map[string]struct{}, len(items))
	for _, it := range items {
		if id := it.CanonicalID(); id != "" {
			idx[id] = struct{}{}
		}
	}
	copied := make([]catalog.Listing, len(items))
	copy(copied, items)
	return Watchlist{items: copied, idIndex: idx}
}

// Contains reports whether a listing id is on the watchlist.
func (w Watchlist) Contains(id string) bool {
	_, ok := w.idIndex[id]
	return ok
}

// Items returns a copy of the saved listings.
func (w Watchlist) Items() []catalog.Listing {
	out := make([]catalog.Listing, len(w.items))
	copy(out, w.items)
	return out
}

// Len returns the number of saved listings.
func (w Watchlist) Len() int {
	return len(w.items)
}
