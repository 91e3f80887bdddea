// Package app exposes catalog search, recommendations and product details.
package app

import (
	"context"

	"github.com/pakpick/market-intel/business/catalog/domain"
)

// RecommendationQuery narrows the recommendation feed.
type RecommendationQuery struct {
	Budget        string
	Category      string
	RiskTolerance string
}

// Gateway is the catalog side of the backend API.
type Gateway interface {
	Search(ctx context.Context, query string) (domain.ResultSet, error)
	Recommendations(ctx context.Context, q RecommendationQuery) (domain.ResultSet, error)
	ProductDetails(ctx context.Context, id string) (domain.ProductDetail, error)
	TrendingKeywords(ctx context.Context) ([]domain.KeywordTrend, error)
}
