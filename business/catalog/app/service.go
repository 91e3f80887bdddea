package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pakpick/market-intel/business/catalog/domain"
	"github.com/pakpick/market-intel/internal/apperror"
)

// Recommendation defaults when the caller leaves a field empty.
const (
	defaultBudget        = "medium"
	defaultCategory      = "electronics"
	defaultRiskTolerance = "med_risk"
)

// Service fronts the catalog gateway with input validation and defaults.
type Service struct {
	log     *slog.Logger
	gateway Gateway
}

// NewService creates a catalog service.
func NewService(log *slog.Logger, gateway Gateway) *Service {
	return &Service{log: log, gateway: gateway}
}

// Search runs a product search. The query must be non-blank.
func (s *Service) Search(ctx context.Context, query string) (domain.ResultSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.ResultSet{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("empty search query"))
	}

	rs, err := s.gateway.Search(ctx, query)
	if err != nil {
		return domain.ResultSet{}, apperror.Wrap(err, apperror.CodeSearchFailed, query)
	}
	s.log.Debug("search completed", "query", query, "listings", len(rs.Listings), "source", rs.Source)
	return rs, nil
}

// Recommendations fetches the recommendation feed, filling defaults for any
// empty query fields.
func (s *Service) Recommendations(ctx context.Context, q RecommendationQuery) (domain.ResultSet, error) {
	if q.Budget == "" {
		q.Budget = defaultBudget
	}
	if q.Category == "" {
		q.Category = defaultCategory
	}
	if q.RiskTolerance == "" {
		q.RiskTolerance = defaultRiskTolerance
	}

	rs, err := s.gateway.Recommendations(ctx, q)
	if err != nil {
		return domain.ResultSet{}, apperror.Wrap(err, apperror.CodeRecommendationsFailed, q.Category)
	}
	s.log.Debug("recommendations fetched",
		"budget", q.Budget, "category", q.Category, "risk", q.RiskTolerance,
		"listings", len(rs.Listings), "exhibition", rs.Exhibition,
	)
	return rs, nil
}

// ProductDetails fetches one product's listing plus its analysis.
func (s *Service) ProductDetails(ctx context.Context, id string) (domain.ProductDetail, error) {
	if id == "" {
		return domain.ProductDetail{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("empty product id"))
	}

	d, err := s.gateway.ProductDetails(ctx, id)
	if err != nil {
		return domain.ProductDetail{}, apperror.Wrap(err, apperror.CodeDetailsFetchFailed, id)
	}
	return d, nil
}

// TrendingKeywords fetches the trending search keywords.
func (s *Service) TrendingKeywords(ctx context.Context) ([]domain.KeywordTrend, error) {
	kws, err := s.gateway.TrendingKeywords(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeKeywordsFetchFailed, "")
	}
	return kws, nil
}
