// Package domain implements the marketplace fee model and the price-gap
// evaluator.
package domain

import "github.com/shopspring/decimal"

// Marketplace seller fee schedule: commission and payment-handling rates are
// applied to the sale price, the shipping contribution is flat per order.
var (
	commissionRate = decimal.RequireFromString("0.12")
	paymentRate    = decimal.RequireFromString("0.0125")
	shippingFlat   = decimal.NewFromInt(30)
	oneHundred     = decimal.NewFromInt(100)
)

// FeeBreakdown is the outcome of a profitability computation for one listing
// at a given sale price and sourcing cost.
type FeeBreakdown struct {
	Price         decimal.Decimal
	Cost          decimal.Decimal
	PlatformFees  decimal.Decimal
	NetProfit     decimal.Decimal
	MarginPercent decimal.Decimal
	// MarginDefined is false when the sale price is zero and the margin has
	// no meaningful value. MarginPercent is zero in that case.
	MarginDefined bool
	IsProfitable  bool
}

// ComputeProfit applies the fee schedule to a sale price and sourcing cost.
// Negative inputs are treated as zero. Profitability requires the net to be
// strictly positive, so a break-even listing is not profitable.
func ComputeProfit(price, cost decimal.Decimal) FeeBreakdown {
	if price.IsNegative() {
		price = decimal.Zero
	}
	if cost.IsNegative() {
		cost = decimal.Zero
	}

	fees := price.Mul(commissionRate).Add(price.Mul(paymentRate)).Add(shippingFlat)
	net := price.Sub(cost).Sub(fees)

	b := FeeBreakdown{
		Price:        price,
		Cost:         cost,
		PlatformFees: fees,
		NetProfit:    net,
		IsProfitable: net.IsPositive(),
	}
	if !price.IsZero() {
		b.MarginPercent = net.Div(price).Mul(oneHundred)
		b.MarginDefined = true
	}
	return b
}
