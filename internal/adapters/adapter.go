// Package adapters converts per-country raw datasets into the canonical
// row shape. The default adapter is driven entirely by the country's
// column mapping; countries with quirks the mapping cannot express get a
// bespoke implementation registered in the dispatch table.
package adapters

import (
	"math"
	"sort"

	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/dataset"
	"github.com/aristath/tankintel/internal/schema"
)

// SchemaAdapter converts one country's raw tabular rows into canonical rows.
type SchemaAdapter interface {
	// Load reads the raw corpus from disk.
	Load(path string) (*dataset.Table, error)
	// ToCanonical converts raw rows into the canonical row shape.
	ToCanonical(raw *dataset.Table) (*schema.Frame, error)
	// InvestorNames returns the country's investor roster, in order.
	InvestorNames() []string
}

// Fallback raw column names searched when no explicit mapping exists for
// the free-text description and display-name fields.
var (
	descriptionFallbacks = []string{"Business Description"}
	nameFallbacks        = []string{"Startup Name", "Company Name", "Name"}
)

// DefaultAdapter implements the mapping-driven conversion shared by most
// countries.
type DefaultAdapter struct {
	country *config.Country
}

// NewDefaultAdapter creates a config-driven adapter.
func NewDefaultAdapter(country *config.Country) *DefaultAdapter {
	return &DefaultAdapter{country: country}
}

// Load reads the raw corpus from disk.
func (a *DefaultAdapter) Load(path string) (*dataset.Table, error) {
	return dataset.LoadCSV(path)
}

// InvestorNames returns the roster declared in the country document.
func (a *DefaultAdapter) InvestorNames() []string {
	return a.country.InvestorNames()
}

// ToCanonical applies the three-way mapping policy to every canonical field
// declared in the country's column mapping:
//   - mapped and present in the data: copied verbatim,
//   - explicitly marked absent for this country: the constant 0,
//   - mapped but not found in the data: the missing-value marker.
func (a *DefaultAdapter) ToCanonical(raw *dataset.Table) (*schema.Frame, error) {
	out := schema.NewFrame(raw.Rows())

	for _, m := range orderedMappingEntries(a.country) {
		canonical, rawCol := m.canonical, m.raw
		switch {
		case a.country.FieldAbsent(canonical):
			out.FillNumeric(canonical, 0)
		case raw.HasColumn(rawCol):
			if canonical == schema.ColIndustry || canonical == schema.ColBusinessDescription || canonical == schema.ColStartupName {
				out.SetCategorical(canonical, raw.StringColumn(rawCol))
			} else {
				out.SetNumeric(canonical, raw.NumericColumn(rawCol))
			}
		default:
			// Expected for this country but missing in this data.
			out.FillNumeric(canonical, math.NaN())
		}
	}

	addTextFallbacks(out, raw)
	addInvestorColumns(out, raw, a.country.Investors)
	return out, nil
}

// addTextFallbacks fills business_description and startup_name from the
// conventional raw column names when the mapping did not provide them.
func addTextFallbacks(out *schema.Frame, raw *dataset.Table) {
	if !out.Has(schema.ColBusinessDescription) {
		for _, col := range descriptionFallbacks {
			if raw.HasColumn(col) {
				out.SetCategorical(schema.ColBusinessDescription, raw.StringColumn(col))
				break
			}
		}
	}
	if !out.Has(schema.ColStartupName) {
		for _, col := range nameFallbacks {
			if raw.HasColumn(col) {
				out.SetCategorical(schema.ColStartupName, raw.StringColumn(col))
				break
			}
		}
	}
}

// addInvestorColumns emits the three canonical investor fields for each
// roster entry, applying the three-way policy to each independently.
func addInvestorColumns(out *schema.Frame, raw *dataset.Table, roster []config.Investor) {
	for _, inv := range roster {
		if inv.Name == "" {
			continue
		}
		setInvestorField(out, raw, schema.InvestorPresentColumn(inv.Name), inv.PresentColumn)
		setInvestorField(out, raw, schema.InvestorAmountColumn(inv.Name), inv.InvestmentAmount)
		setInvestorField(out, raw, schema.InvestorEquityColumn(inv.Name), inv.InvestmentEquity)
	}
}

func setInvestorField(out *schema.Frame, raw *dataset.Table, canonical, rawCol string) {
	if rawCol != "" && raw.HasColumn(rawCol) {
		out.SetNumeric(canonical, raw.NumericColumn(rawCol))
		return
	}
	out.FillNumeric(canonical, 0)
}

type mappingEntry struct {
	canonical string
	raw       string
}

// orderedMappingEntries iterates the column mapping deterministically:
// canonical feature fields first, then outcome fields, then the rest sorted.
func orderedMappingEntries(country *config.Country) []mappingEntry {
	preferred := append(schema.CanonicalFeatures(),
		schema.ColGotDeal, schema.ColReceivedOffer,
		schema.ColDealAmount, schema.ColDealEquity, schema.ColDealValuation,
		schema.ColBusinessDescription, schema.ColStartupName,
	)
	seen := make(map[string]bool)
	var entries []mappingEntry
	for _, canonical := range preferred {
		if raw, ok := country.ColumnMapping[canonical]; ok {
			entries = append(entries, mappingEntry{canonical, raw})
			seen[canonical] = true
		}
	}
	var rest []string
	for canonical := range country.ColumnMapping {
		if !seen[canonical] {
			rest = append(rest, canonical)
		}
	}
	sort.Strings(rest)
	for _, canonical := range rest {
		entries = append(entries, mappingEntry{canonical, country.ColumnMapping[canonical]})
	}
	return entries
}
