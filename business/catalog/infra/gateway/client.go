// Package gateway implements the backend API client shared by the catalog
// service and the sync orchestrator.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	catalogapp "github.com/pakpick/market-intel/business/catalog/app"
	"github.com/pakpick/market-intel/business/catalog/domain"
	syncapp "github.com/pakpick/market-intel/business/sync/app"
	"github.com/pakpick/market-intel/internal/apperror"
	"github.com/pakpick/market-intel/internal/httpclient"
	"github.com/pakpick/market-intel/internal/ratelimit"
)

const providerName = "pakpick-backend"

// Config carries the gateway connection settings.
type Config struct {
	BaseURL            string
	RequestTimeout     time.Duration
	RequestsPerMinute  int
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Client talks to the backend over JSON HTTP. Every call is rate limited and
// runs through a shared circuit breaker, so a dead backend fails fast instead
// of piling up requests. Client is stateless; all caching lives in the apps.
type Client struct {
	log     *slog.Logger
	http    httpclient.Client
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker[*httpclient.Response]
}

var (
	_ catalogapp.Gateway     = (*Client)(nil)
	_ syncapp.StatsProvider  = (*Client)(nil)
	_ syncapp.TrendSource    = (*Client)(nil)
	_ syncapp.WatchlistStore = (*Client)(nil)
)

// New creates a gateway client.
func New(log *slog.Logger, cfg Config) (*Client, error) {
	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
		httpclient.WithProviderName(providerName),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeConfigurationError, "gateway http client")
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker[*httpclient.Response](gobreaker.Settings{
		Name:    providerName,
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("gateway breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		log:     log,
		http:    hc,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		breaker: breaker,
	}, nil
}

// Search runs GET /search.
func (c *Client) Search(ctx context.Context, query string) (domain.ResultSet, error) {
	var out searchResponse
	err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetQueryParam("q", query).
			SetResult(&out).
			Get(ctx, "/search")
	})
	if err != nil {
		return domain.ResultSet{}, err
	}
	return domain.ResultSet{
		Listings:   out.Results,
		Source:     out.Source,
		Exhibition: out.IsExhibition,
	}, nil
}

// Recommendations runs GET /recommendations.
func (c *Client) Recommendations(ctx context.Context, q catalogapp.RecommendationQuery) (domain.ResultSet, error) {
	var out recommendationsResponse
	err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetQueryParam("budget", q.Budget).
			SetQueryParam("category", q.Category).
			SetQueryParam("risk", q.RiskTolerance).
			SetResult(&out).
			Get(ctx, "/recommendations")
	})
	if err != nil {
		return domain.ResultSet{}, err
	}
	return domain.ResultSet{
		Listings:     out.Results,
		Source:       out.Source,
		Personalized: out.IsPersonalized,
	}, nil
}

// ProductDetails runs GET /details/{id}.
func (c *Client) ProductDetails(ctx context.Context, id string) (domain.ProductDetail, error) {
	var out domain.ProductDetail
	err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetResult(&out).
			Get(ctx, "/details/"+url.PathEscape(id))
	})
	if err != nil {
		return domain.ProductDetail{}, err
	}
	return out, nil
}

// TrendingKeywords runs GET /analytics/keywords.
func (c *Client) TrendingKeywords(ctx context.Context) ([]domain.KeywordTrend, error) {
	var out keywordsResponse
	err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetResult(&out).
			Get(ctx, "/analytics/keywords")
	})
	if err != nil {
		return nil, err
	}
	return out.Keywords, nil
}

// FetchStats runs GET /market-stats for the heartbeat loop.
func (c *Client) FetchStats(ctx context.Context) (syncapp.Stats, error) {
	var out statsResponse
	err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetResult(&out).
			Get(ctx, "/market-stats")
	})
	if err != nil {
		return syncapp.Stats{}, err
	}
	return syncapp.Stats{
		DBMode:     out.DBMode,
		LastSync:   out.LastSync,
		SyncStatus: out.SyncStatus,
	}, nil
}

// FetchTrends runs GET /trends.
func (c *Client) FetchTrends(ctx context.Context, t domain.TrendType) (syncapp.TrendSnapshot, error) {
	var out trendsResponse
	err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetQueryParam("type", string(t)).
			SetResult(&out).
			Get(ctx, "/trends")
	})
	if err != nil {
		return syncapp.TrendSnapshot{}, err
	}
	return syncapp.TrendSnapshot{
		Listings:   out.Results,
		Refreshing: out.IsRefreshing,
	}, nil
}

// TriggerRefresh runs POST /trends/refresh. The backend treats a refresh
// already underway as success, and so do we.
func (c *Client) TriggerRefresh(ctx context.Context) error {
	var out refreshResponse
	err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetResult(&out).
			Post(ctx, "/trends/refresh")
	})
	if err != nil {
		return err
	}
	c.log.Debug("trend refresh triggered", "status", out.Status)
	return nil
}

// ListWatchlist runs GET /watchlist.
func (c *Client) ListWatchlist(ctx context.Context) ([]domain.Listing, error) {
	var out watchlistResponse
	err := c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetResult(&out).
			Get(ctx, "/watchlist")
	})
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// AddWatch runs POST /watchlist/add with the full listing as body.
func (c *Client) AddWatch(ctx context.Context, l domain.Listing) error {
	var out statusResponse
	return c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetBody(l).
			SetResult(&out).
			Post(ctx, "/watchlist/add")
	})
}

// RemoveWatch runs DELETE /watchlist/{id}.
func (c *Client) RemoveWatch(ctx context.Context, id string) error {
	var out statusResponse
	return c.call(ctx, func() (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetResult(&out).
			Delete(ctx, "/watchlist/"+url.PathEscape(id))
	})
}

// call waits on the rate limiter, then runs the request through the breaker.
// Any non-2xx status counts as a breaker failure so a flapping backend
// opens it.
func (c *Client) call(ctx context.Context, fn func() (*httpclient.Response, error)) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeRateLimited, "gateway")
	}

	_, err := c.breaker.Execute(func() (*httpclient.Response, error) {
		resp, err := fn()
		if err != nil {
			if resp != nil && resp.IsSuccess() {
				// Transport succeeded but the payload did not decode.
				return resp, apperror.Wrap(err, apperror.CodeGatewayDecode, "")
			}
			return resp, apperror.Wrap(err, apperror.CodeGatewayUnreachable, "")
		}
		if !resp.IsSuccess() {
			// Only 2xx counts as success; an unfollowed redirect is as
			// unusable as a 5xx since nothing was decoded.
			return resp, apperror.New(apperror.CodeGatewayStatus,
				apperror.WithContext(fmt.Sprintf("status %d", resp.StatusCode)))
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err))
		}
		return err
	}
	return nil
}
