// Package infra provides reporter implementations for the sync orchestrator.
package infra

import (
	"fmt"
	"io"
	"sync"

	"github.com/pakpick/market-intel/business/sync/domain"
)

// ConsoleReporter prints state changes as single formatted lines, one per
// update. Suitable for running the agent in a terminal or piping to a log.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a reporter writing to out.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// ConnectionChanged prints the heartbeat observation.
func (r *ConsoleReporter) ConnectionChanged(s domain.ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[conn] mode=%s db=%q status=%s last_sync=%s\n",
		s.Mode(), s.DBMode, s.SyncStatus, s.LastSync)
}

// TrendsChanged prints the trend snapshot summary.
func (r *ConsoleReporter) TrendsChanged(s domain.TrendState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refreshing := ""
	if s.IsRefreshing {
		refreshing = " (refreshing)"
	}
	fmt.Fprintf(r.out, "[trend] %d listings%s\n", len(s.Listings), refreshing)
}

// WatchlistChanged prints the watchlist size.
func (r *ConsoleReporter) WatchlistChanged(w domain.Watchlist) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[watch] %d saved\n", w.Len())
}
