// Package app exposes the analytics operations over catalog listings.
package app

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/pakpick/market-intel/business/analytics/domain"
	catalog "github.com/pakpick/market-intel/business/catalog/domain"
)

// Analyzer runs profitability and price-gap analysis on listings.
type Analyzer struct {
	log *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(log *slog.Logger) *Analyzer {
	return &Analyzer{log: log}
}

// ProfitFor computes the fee breakdown for a listing at a given sourcing
// cost. The listing's own price text is parsed tolerantly, so an unparsable
// price evaluates as zero.
func (a *Analyzer) ProfitFor(l catalog.Listing, cost decimal.Decimal) domain.FeeBreakdown {
	b := domain.ComputeProfit(l.Price.Decimal(), cost)
	a.log.Debug("profit computed",
		"listing", l.CanonicalID(),
		"price", b.Price.String(),
		"net", b.NetProfit.String(),
		"profitable", b.IsProfitable,
	)
	return b
}

// SuggestedCost returns the listing's sourcing cost when it carries one,
// falling back to 60% of the sale price as a conservative default.
func (a *Analyzer) SuggestedCost(l catalog.Listing) decimal.Decimal {
	if c := l.SourcingCost.Decimal(); !c.IsZero() {
		return c
	}
	return l.Price.Decimal().Mul(decimal.RequireFromString("0.6"))
}

// Compare evaluates the price gap across a comparison set. It returns nil
// when there are fewer than two listings.
func (a *Analyzer) Compare(listings []catalog.Listing) *domain.ArbitrageResult {
	res := domain.EvaluateArbitrage(listings)
	if res == nil {
		return nil
	}
	a.log.Debug("comparison evaluated",
		"listings", len(listings),
		"gap", res.Gap.String(),
		"cross_platform", res.CrossPlatform,
	)
	return res
}
