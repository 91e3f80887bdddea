package domain

import (
	"sort"

	"github.com/shopspring/decimal"

	catalog "github.com/pakpick/market-intel/business/catalog/domain"
)

// ArbitrageResult describes the price gap between the most and least
// expensive listings in a comparison set. HighListing is the sell side,
// LowListing the buy side.
type ArbitrageResult struct {
	HighListing catalog.Listing
	LowListing  catalog.Listing
	High        decimal.Decimal
	Low         decimal.Decimal
	Gap         decimal.Decimal
	// ROIPercent is the gap relative to the buy side. ROIDefined is false
	// when the low price parses to zero.
	ROIPercent decimal.Decimal
	ROIDefined bool
	// CrossPlatform is set only for a two-listing comparison where the
	// listings sit on different recognized marketplaces.
	CrossPlatform bool
}

// EvaluateArbitrage ranks listings by parsed price and measures the spread.
// It returns nil when there are fewer than two listings to compare. The
// input slice is not modified.
func EvaluateArbitrage(listings []catalog.Listing) *ArbitrageResult {
	if len(listings) < 2 {
		return nil
	}

	ranked := make([]catalog.Listing, len(listings))
	copy(ranked, listings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price.Amount() > ranked[j].Price.Amount()
	})

	highListing := ranked[0]
	lowListing := ranked[len(ranked)-1]
	high := highListing.Price.Decimal()
	low := lowListing.Price.Decimal()
	gap := high.Sub(low)

	res := &ArbitrageResult{
		HighListing: highListing,
		LowListing:  lowListing,
		High:        high,
		Low:         low,
		Gap:         gap,
	}
	if !low.IsZero() {
		res.ROIPercent = gap.Div(low).Mul(oneHundred)
		res.ROIDefined = true
	}

	if len(listings) == 2 {
		a, b := listings[0].Platform, listings[1].Platform
		res.CrossPlatform = a.IsMarketplace() && b.IsMarketplace() && a != b
	}
	return res
}
