// Command marketintel runs the market research agent: it keeps a live
// connection to the PakPick backend, maintains the trend and watchlist
// caches, and can run one-off searches with profitability analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"

	analyticsapp "github.com/pakpick/market-intel/business/analytics/app"
	catalogapp "github.com/pakpick/market-intel/business/catalog/app"
	catalogdomain "github.com/pakpick/market-intel/business/catalog/domain"
	"github.com/pakpick/market-intel/business/catalog/infra/gateway"
	syncapp "github.com/pakpick/market-intel/business/sync/app"
	syncinfra "github.com/pakpick/market-intel/business/sync/infra"
	"github.com/pakpick/market-intel/internal/apm"
	"github.com/pakpick/market-intel/internal/config"
	"github.com/pakpick/market-intel/internal/health"
	"github.com/pakpick/market-intel/internal/metrics"
)

const version = "1.2.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "path to config file")
		search     = flag.String("search", "", "run a one-off product search and exit")
		trendType  = flag.String("trend-type", "daily", "trend feed to load (daily or seasonal)")
		refresh    = flag.Bool("refresh-trends", false, "trigger a trend refresh on startup")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.App.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		mp, err := metrics.NewProvider(metrics.NewConfig(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithPrometheus(),
			metrics.WithOTLPEndpoint(cfg.Telemetry.OTLPEndpoint, true),
		))
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mp.Shutdown(shutdownCtx)
		}()
		metrics.ServePrometheus(cfg.Telemetry.PrometheusPort)

		traceBackend := apm.EmptyProvider
		if cfg.Telemetry.OTLPEndpoint != "" {
			traceBackend = apm.OTLPProvider
		}
		tp := apm.NewTraceProvider(cfg.Telemetry.ServiceName,
			apm.WithProvider(traceBackend, cfg.Telemetry.OTLPEndpoint, log))
		defer func() { _ = tp.Stop() }()
	}

	gw, err := gateway.New(log, gateway.Config{
		BaseURL:            cfg.Gateway.BaseURL,
		RequestTimeout:     cfg.Gateway.RequestTimeout,
		RequestsPerMinute:  cfg.Gateway.RequestsPerMinute,
		BreakerMaxFailures: cfg.Gateway.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Gateway.BreakerOpenTimeout,
	})
	if err != nil {
		return err
	}

	waitForBackend(ctx, log, gw)

	catalog := catalogapp.NewService(log, gw)
	analyzer := analyticsapp.NewAnalyzer(log)

	if *search != "" {
		return runSearch(ctx, catalog, analyzer, *search)
	}

	orch := syncapp.NewOrchestrator(log, clock.New(), syncapp.Config{
		HeartbeatInterval:   cfg.Sync.HeartbeatInterval,
		TrendPollInterval:   cfg.Sync.TrendPollInterval,
		TrendRefreshCeiling: cfg.Sync.TrendRefreshCeiling,
	}, gw, gw, gw, syncinfra.NewConsoleReporter(os.Stdout))

	if err := orch.Start(ctx); err != nil {
		return err
	}
	defer orch.Stop()

	var healthSrv *health.Server
	if cfg.Health.Enabled {
		healthSrv = health.NewServer(cfg.Health.Port, version)
		healthSrv.RegisterCheck("gateway", func(ctx context.Context) (bool, string) {
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if _, err := gw.FetchStats(ctx); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
		healthSrv.RegisterCheck("heartbeat", func(context.Context) (bool, string) {
			if orch.Connection().Offline() {
				return false, "no heartbeat observed yet"
			}
			return true, ""
		})
		if err := healthSrv.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = healthSrv.Stop(shutdownCtx)
		}()
	}

	feed := catalogdomain.TrendType(strings.ToLower(*trendType))
	if err := orch.LoadTrends(ctx, feed); err != nil {
		log.Warn("initial trend load failed", "error", err)
	}
	if *refresh {
		if err := orch.RefreshTrends(ctx, feed); err != nil {
			log.Warn("trend refresh failed", "error", err)
		}
	}

	log.Info("market intel agent running", "backend", cfg.Gateway.BaseURL, "version", version)
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// waitForBackend probes the stats endpoint with exponential backoff so the
// agent survives being started before the backend. It gives up after a few
// attempts and lets the heartbeat loop take over.
func waitForBackend(ctx context.Context, log *slog.Logger, gw *gateway.Client) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	err := backoff.Retry(func() error {
		_, err := gw.FetchStats(ctx)
		if err != nil {
			log.Debug("backend not reachable yet", "error", err)
		}
		return err
	}, policy)
	if err != nil {
		log.Warn("backend unreachable after startup probe, continuing anyway", "error", err)
	}
}

func runSearch(ctx context.Context, catalog *catalogapp.Service, analyzer *analyticsapp.Analyzer, query string) error {
	rs, err := catalog.Search(ctx, query)
	if err != nil {
		return err
	}

	fmt.Printf("%d listings for %q (source: %s)\n", len(rs.Listings), query, rs.Source)
	for _, l := range rs.Listings {
		breakdown := analyzer.ProfitFor(l, analyzer.SuggestedCost(l))
		marker := " "
		if breakdown.IsProfitable {
			marker = "*"
		}
		fmt.Printf("%s %-10s %-50.50s Rs.%-10d net Rs.%s\n",
			marker, l.Platform, l.Title, l.Price.Amount(), breakdown.NetProfit.StringFixed(0))
	}

	if res := analyzer.Compare(rs.Listings); res != nil {
		fmt.Printf("\nprice gap: Rs.%s (sell %q on %s at Rs.%s, buy %q on %s at Rs.%s)",
			res.Gap.StringFixed(0),
			res.HighListing.Title, res.HighListing.Platform, res.High.StringFixed(0),
			res.LowListing.Title, res.LowListing.Platform, res.Low.StringFixed(0))
		if res.ROIDefined {
			fmt.Printf(", flip ROI %s%%", res.ROIPercent.StringFixed(1))
		}
		if res.CrossPlatform {
			fmt.Print(" [cross-platform]")
		}
		fmt.Println()
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
