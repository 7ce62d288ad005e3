// Package pipeline implements the canonical feature-engineering pipeline:
// missing-value policy, target derivation, feature selection with outcome
// leakage guards, categorical encoding and numeric scaling. It runs in a
// fit mode (training) and a transform-only mode (inference) that reproduces
// the fit-time feature space exactly.
package pipeline

import (
	"math"
	"sort"

	"github.com/aristath/tankintel/internal/schema"
)

// HandleMissingValues applies the missing-value policy in place:
//   - numeric non-outcome columns: NaN replaced with the column median over
//     the batch, or 0 when the whole column is missing (single-row batches),
//   - categorical columns: "" replaced with the literal "Unknown",
//   - raw outcome columns: NaN replaced with 0 so target derivation sees
//     concrete values. Outcomes are never median-filled: a median fill would
//     leak batch-level outcome information into target construction.
func HandleMissingValues(f *schema.Frame) {
	for _, col := range f.Columns() {
		switch f.Kind(col) {
		case schema.Numeric:
			if schema.IsOutcomeVariable(col) {
				continue
			}
			fillNumeric(f.Numeric(col))
		case schema.Categorical:
			vals := f.Categorical(col)
			for i, v := range vals {
				if v == "" {
					vals[i] = "Unknown"
				}
			}
		}
	}

	for _, col := range []string{schema.ColDealAmount, schema.ColDealEquity, schema.ColDealValuation} {
		if vals := f.Numeric(col); vals != nil {
			for i, v := range vals {
				if math.IsNaN(v) {
					vals[i] = 0
				}
			}
		}
	}
}

func fillNumeric(vals []float64) {
	if vals == nil {
		return
	}
	missing := false
	for _, v := range vals {
		if math.IsNaN(v) {
			missing = true
			break
		}
	}
	if !missing {
		return
	}
	med := median(vals)
	if math.IsNaN(med) {
		med = 0
	}
	for i, v := range vals {
		if math.IsNaN(v) {
			vals[i] = med
		}
	}
}

// median returns the median of the non-NaN values, or NaN when none exist.
func median(vals []float64) float64 {
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	sort.Float64s(present)
	mid := len(present) / 2
	if len(present)%2 == 1 {
		return present[mid]
	}
	return (present[mid-1] + present[mid]) / 2
}

// CreateTargets derives the 'deal' and 'valuation' target columns in place.
//
// deal: the country's explicit outcome flag when one exists (got_deal, then
// received_offer), otherwise deal_amount > 0, otherwise the constant 0.
//
// valuation: the explicit deal_valuation column when the country has one,
// otherwise (deal_amount / deal_equity) * 100 wherever deal_amount > 0 and
// 0 < deal_equity <= 100, and NaN (undefined, not zero) elsewhere.
func CreateTargets(f *schema.Frame) {
	n := f.Rows()

	deal := make([]float64, n)
	switch {
	case f.Numeric(schema.ColGotDeal) != nil:
		binarize(deal, f.Numeric(schema.ColGotDeal))
	case f.Numeric(schema.ColReceivedOffer) != nil:
		binarize(deal, f.Numeric(schema.ColReceivedOffer))
	case f.Numeric(schema.ColDealAmount) != nil:
		for i, v := range f.Numeric(schema.ColDealAmount) {
			if v > 0 {
				deal[i] = 1
			}
		}
	}
	f.SetNumeric(schema.ColDeal, deal)

	valuation := make([]float64, n)
	switch {
	case f.Numeric(schema.ColDealValuation) != nil:
		copy(valuation, f.Numeric(schema.ColDealValuation))
	case f.Numeric(schema.ColDealAmount) != nil && f.Numeric(schema.ColDealEquity) != nil:
		amount := f.Numeric(schema.ColDealAmount)
		equity := f.Numeric(schema.ColDealEquity)
		for i := range valuation {
			if amount[i] > 0 && equity[i] > 0 && equity[i] <= 100 {
				valuation[i] = (amount[i] / equity[i]) * 100
			} else {
				valuation[i] = math.NaN()
			}
		}
	default:
		for i := range valuation {
			valuation[i] = math.NaN()
		}
	}
	f.SetNumeric(schema.ColValuation, valuation)
}

func binarize(dst, src []float64) {
	for i, v := range src {
		if v != 0 && !math.IsNaN(v) {
			dst[i] = 1
		}
	}
}

// SelectFeatures returns the canonical feature columns plus investor-present
// columns and, if requested, the two derived targets. The raw outcome set
// (deal_amount, deal_equity, deal_valuation) is excluded unconditionally
// regardless of includeTarget.
func SelectFeatures(f *schema.Frame, includeTarget bool) *schema.Frame {
	selected := schema.CanonicalFeatures()
	for _, col := range f.Columns() {
		if schema.IsPresentColumn(col) {
			selected = append(selected, col)
		}
	}
	if includeTarget {
		for _, col := range []string{schema.ColDeal, schema.ColValuation} {
			if f.Has(col) {
				selected = append(selected, col)
			}
		}
	}

	// Structural guard: raw outcomes never pass this filter, whatever the
	// caller asked for.
	kept := selected[:0]
	for _, col := range selected {
		switch col {
		case schema.ColDealAmount, schema.ColDealEquity, schema.ColDealValuation:
			continue
		}
		kept = append(kept, col)
	}
	return f.Select(kept...)
}

// dropOutcomes reasserts the leakage guard, removing every outcome variable
// including the derived targets.
func dropOutcomes(f *schema.Frame) {
	f.Drop(schema.OutcomeVariables()...)
}
