// Package domain contains the core catalog types shared across contexts.
package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Platform tags the marketplace or synthetic source a listing came from.
type Platform string

const (
	PlatformDaraz    Platform = "Daraz"
	PlatformMarkaz   Platform = "Markaz"
	PlatformForecast Platform = "Forecast"
	PlatformSearch   Platform = "Search"
)

// IsMarketplace reports whether the platform is a real marketplace a seller
// can buy from or sell on, as opposed to a forecast or web-search source.
func (p Platform) IsMarketplace() bool {
	return p == PlatformDaraz || p == PlatformMarkaz
}

// FlexID is a listing identifier that upstream sends either as a JSON string
// or a raw number. Both forms coerce to the same string, so a numeric 42 and
// the string "42" collide as intended.
type FlexID string

// UnmarshalJSON accepts strings, numbers and null.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// PriceText is a raw upstream price, kept verbatim because scrapers emit
// anything from 1500 to "Rs. 1,500". Amount parses it tolerantly.
type PriceText string

// UnmarshalJSON accepts strings, numbers and null.
func (p *PriceText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PriceText(n.String())
	return nil
}

// Amount strips every non-digit character and parses what remains as an
// integer amount in whole currency units. Unparsable input yields 0.
func (p PriceText) Amount() int64 {
	var b strings.Builder
	for _, r := range string(p) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Decimal returns the parsed amount as a decimal for fee math.
func (p PriceText) Decimal() decimal.Decimal {
	return decimal.NewFromInt(p.Amount())
}

// Listing is one product record from a marketplace or forecast source.
type Listing struct {
	ID               FlexID    `json:"id,omitempty"`
	LegacyID         FlexID    `json:"_id,omitempty"`
	Title            string    `json:"title"`
	Price            PriceText `json:"price"`
	Platform         Platform  `json:"platform"`
	Image            string    `json:"image,omitempty"`
	Link             string    `json:"link,omitempty"`
	Reviews          int       `json:"reviews,omitempty"`
	CompetitionScore int       `json:"competition_score,omitempty"`
	SentimentLabel   string    `json:"sentiment_label,omitempty"`
	Growth           string    `json:"growth,omitempty"`
	SourcingCost     PriceText `json:"sourcing_cost,omitempty"`
	ProfitEstimate   PriceText `json:"profit_estimate,omitempty"`
}

// CanonicalID returns the one string key a listing is identified by
// everywhere: the "id" field when present, else the legacy "_id".
func (l Listing) CanonicalID() string {
	if l.ID != "" {
		return string(l.ID)
	}
	return string(l.LegacyID)
}

// KeywordTrend is one trending search keyword with its volume band and
// growth figure.
type KeywordTrend struct {
	Keyword string `json:"keyword"`
	Volume  string `json:"volume"`
	Growth  string `json:"growth"`
}

// TrendType selects the trend feed variant.
type TrendType string

const (
	TrendDaily    TrendType = "daily"
	TrendSeasonal TrendType = "seasonal"
)

// ResultSet is a page of listings with its provenance flags.
type ResultSet struct {
	Listings     []Listing
	Source       string
	Exhibition   bool
	Personalized bool
}
