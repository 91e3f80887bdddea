package domain

// SalesPoint is one day of the demand history chart, historical or forecast.
type SalesPoint struct {
	Name       string `json:"name"`
	Sales      int    `json:"sales"`
	IsForecast bool   `json:"is_forecast"`
}

// Forecast is the growth prediction attached to a product.
type Forecast struct {
	MonthlyGrowth string `json:"monthly_growth_prediction"`
	Confidence    string `json:"confidence_score"`
}

// Sentiment summarizes buyer feedback for a product.
type Sentiment struct {
	Score  float64 `json:"score"`
	Label  string  `json:"label"`
	Advice string  `json:"advice"`
}

// ArbitragePlan is the backend's sourcing-cost estimate for a product.
type ArbitragePlan struct {
	EstimatedSourcingCost PriceText `json:"estimated_sourcing_cost"`
	PotentialProfit       PriceText `json:"potential_profit"`
	Margin                string    `json:"margin"`
	RiskLevel             string    `json:"risk_level"`
	PlatformFees          string    `json:"platform_fees"`
}

// SourcingPlan recommends where and how to source the product.
type SourcingPlan struct {
	Strategy     string `json:"strategy"`
	Type         string `json:"type"`
	BestPlatform string `json:"best_platform"`
}

// ProductAnalysis is the research payload attached to a product detail view.
// Arbitrage and Sourcing are absent on forecast-only products.
type ProductAnalysis struct {
	SalesHistory []SalesPoint   `json:"sales_history"`
	Forecast     Forecast       `json:"forecast"`
	Sentiment    Sentiment      `json:"sentiment"`
	Arbitrage    *ArbitragePlan `json:"arbitrage,omitempty"`
	Sourcing     *SourcingPlan  `json:"sourcing,omitempty"`
	Checklist    []string       `json:"checklist"`
}

// ProductDetail joins a listing with its analysis.
type ProductDetail struct {
	Product  Listing         `json:"product"`
	Analysis ProductAnalysis `json:"analysis"`
}
