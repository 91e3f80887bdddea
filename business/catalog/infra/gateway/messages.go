package gateway

import (
	"github.com/pakpick/market-intel/business/catalog/domain"
)

type searchResponse struct {
	Query        string           `json:"query"`
	Results      []domain.Listing `json:"results"`
	Source       string           `json:"source"`
	IsExhibition bool             `json:"is_exhibition"`
	IsCached     bool             `json:"is_cached"`
}

type recommendationsResponse struct {
	Query          string           `json:"query"`
	Results        []domain.Listing `json:"results"`
	Source         string           `json:"source"`
	IsPersonalized bool             `json:"is_personalized"`
}

type keywordsResponse struct {
	Keywords []domain.KeywordTrend `json:"keywords"`
}

type statsResponse struct {
	DBMode     string `json:"db_mode"`
	LastSync   string `json:"last_sync"`
	SyncStatus string `json:"sync_status"`
}

type trendsResponse struct {
	Results      []domain.Listing `json:"results"`
	IsRefreshing bool             `json:"is_refreshing"`
	Count        int              `json:"count"`
}

type refreshResponse struct {
	Status       string `json:"status"`
	IsRefreshing bool   `json:"is_refreshing"`
}

type watchlistResponse struct {
	Results []domain.Listing `json:"results"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
