// Package schema defines the canonical, country-agnostic row shape that every
// prediction is computed against, plus the column-oriented Frame type shared
// by the adapters and the feature pipeline.
package schema

import "strings"

// Canonical feature column names. Every country adapter must emit these,
// using 0 for fields the country's dataset structurally lacks.
const (
	ColIndustry           = "industry"
	ColAskAmount          = "ask_amount"
	ColAskEquity          = "ask_equity"
	ColValuationRequested = "valuation_requested"
	ColMonthlySales       = "monthly_sales"

	ColBusinessDescription = "business_description"
	ColStartupName         = "startup_name"

	// Explicit per-country outcome flags, when the raw dataset carries them.
	ColGotDeal       = "got_deal"
	ColReceivedOffer = "received_offer"

	// Outcome columns. Only knowable after the pitch concluded.
	ColDealAmount    = "deal_amount"
	ColDealEquity    = "deal_equity"
	ColDealValuation = "deal_valuation"

	// Derived targets.
	ColDeal      = "deal"
	ColValuation = "valuation"
)

// CanonicalFeatures is the fixed set of canonical feature columns, in order.
// Investor-present columns are appended per country roster.
func CanonicalFeatures() []string {
	return []string{
		ColIndustry,
		ColAskAmount,
		ColAskEquity,
		ColValuationRequested,
		ColMonthlySales,
	}
}

// OutcomeVariables is the full set of columns structurally barred from any
// feature matrix: raw outcomes plus the derived targets.
func OutcomeVariables() []string {
	return []string{ColDealAmount, ColDealEquity, ColDealValuation, ColDeal, ColValuation}
}

// IsOutcomeVariable reports whether a column may never appear as a feature.
func IsOutcomeVariable(col string) bool {
	switch col {
	case ColDealAmount, ColDealEquity, ColDealValuation, ColDeal, ColValuation:
		return true
	}
	return false
}

// InvestorPresentColumn returns the canonical present-flag column for an
// investor. Names are lower-cased so rosters from different countries with
// the same casing stay field-compatible.
func InvestorPresentColumn(name string) string {
	return strings.ToLower(name) + "_present"
}

// InvestorAmountColumn returns the canonical investment-amount column.
func InvestorAmountColumn(name string) string {
	return strings.ToLower(name) + "_investment_amount"
}

// InvestorEquityColumn returns the canonical investment-equity column.
func InvestorEquityColumn(name string) string {
	return strings.ToLower(name) + "_investment_equity"
}

// InvestorInvestedColumn returns the derived per-investor training target.
func InvestorInvestedColumn(name string) string {
	return strings.ToLower(name) + "_invested"
}

// IsPresentColumn reports whether a column is an investor-present flag.
func IsPresentColumn(col string) bool {
	return strings.HasSuffix(col, "_present")
}
