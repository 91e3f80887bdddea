package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pakpick/market-intel/business/catalog/domain"
	"github.com/pakpick/market-intel/internal/apperror"
)

type stubGateway struct {
	searchRS  domain.ResultSet
	searchErr error
	recQ      RecommendationQuery
	recRS     domain.ResultSet
	recErr    error
	detail    domain.ProductDetail
	detailErr error
	keywords  []domain.KeywordTrend
	kwErr     error
}

func (g *stubGateway) Search(ctx context.Context, query string) (domain.ResultSet, error) {
	return g.searchRS, g.searchErr
}

func (g *stubGateway) Recommendations(ctx context.Context, q RecommendationQuery) (domain.ResultSet, error) {
	g.recQ = q
	return g.recRS, g.recErr
}

func (g *stubGateway) ProductDetails(ctx context.Context, id string) (domain.ProductDetail, error) {
	return g.detail, g.detailErr
}

func (g *stubGateway) TrendingKeywords(ctx context.Context) ([]domain.KeywordTrend, error) {
	return g.keywords, g.kwErr
}

func newService(g *stubGateway) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), g)
}

func TestSearchValidatesQuery(t *testing.T) {
	s := newService(&stubGateway{})
	for _, q := range []string{"", "   ", "\t"} {
		if _, err := s.Search(context.Background(), q); !apperror.IsCode(err, apperror.CodeInvalidInput) {
			t.Errorf("Search(%q) err = %v, want INVALID_INPUT", q, err)
		}
	}
}

func TestSearchWrapsGatewayError(t *testing.T) {
	s := newService(&stubGateway{searchErr: errors.New("timeout")})
	_, err := s.Search(context.Background(), "earbuds")
	if !apperror.IsCode(err, apperror.CodeSearchFailed) {
		t.Errorf("err = %v, want SEARCH_FAILED", err)
	}
}

func TestRecommendationsFillsDefaults(t *testing.T) {
	g := &stubGateway{}
	s := newService(g)

	if _, err := s.Recommendations(context.Background(), RecommendationQuery{}); err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if g.recQ.Budget != "medium" || g.recQ.Category != "electronics" || g.recQ.RiskTolerance != "med_risk" {
		t.Errorf("defaults not applied: %+v", g.recQ)
	}

	custom := RecommendationQuery{Budget: "high", Category: "fashion", RiskTolerance: "low_risk"}
	if _, err := s.Recommendations(context.Background(), custom); err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if g.recQ != custom {
		t.Errorf("caller values overridden: %+v", g.recQ)
	}
}

func TestProductDetails(t *testing.T) {
	g := &stubGateway{detail: domain.ProductDetail{
		Product:  domain.Listing{ID: "p1", Title: "Earbuds"},
		Analysis: domain.ProductAnalysis{Forecast: domain.Forecast{MonthlyGrowth: "+6.2%"}},
	}}
	s := newService(g)

	if _, err := s.ProductDetails(context.Background(), ""); !apperror.IsCode(err, apperror.CodeInvalidInput) {
		t.Errorf("empty id err = %v, want INVALID_INPUT", err)
	}

	d, err := s.ProductDetails(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ProductDetails: %v", err)
	}
	if d.Product.Title != "Earbuds" || d.Analysis.Forecast.MonthlyGrowth != "+6.2%" {
		t.Errorf("unexpected detail: %+v", d)
	}

	g.detailErr = errors.New("502")
	if _, err := s.ProductDetails(context.Background(), "p1"); !apperror.IsCode(err, apperror.CodeDetailsFetchFailed) {
		t.Errorf("err = %v, want DETAILS_FETCH_FAILED", err)
	}
}

func TestTrendingKeywords(t *testing.T) {
	g := &stubGateway{keywords: []domain.KeywordTrend{{Keyword: "airpods", Growth: "+40%"}}}
	s := newService(g)

	kws, err := s.TrendingKeywords(context.Background())
	if err != nil {
		t.Fatalf("TrendingKeywords: %v", err)
	}
	if len(kws) != 1 || kws[0].Keyword != "airpods" {
		t.Errorf("unexpected keywords: %+v", kws)
	}

	g.kwErr = errors.New("down")
	if _, err := s.TrendingKeywords(context.Background()); !apperror.IsCode(err, apperror.CodeKeywordsFetchFailed) {
		t.Errorf("err = %v, want KEYWORDS_FETCH_FAILED", err)
	}
}
