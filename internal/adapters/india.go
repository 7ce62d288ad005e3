package adapters

import (
	"math"

	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/dataset"
	"github.com/aristath/tankintel/internal/schema"
)

// indiaRoster is the fixed investor list for the India dataset. The raw
// corpus predates the config-driven mapping and carries a guest investor
// (Ashneer) whose columns are not always present, so the roster is literal
// rather than derived from the country document.
var indiaRoster = []string{"Namita", "Vineeta", "Anupam", "Aman", "Peyush", "Ritesh", "Amit", "Ashneer"}

// indiaColumns maps canonical fields to the India dataset's raw columns.
var indiaColumns = map[string]string{
	schema.ColIndustry:            "Industry",
	schema.ColAskAmount:           "Original Ask Amount",
	schema.ColAskEquity:           "Original Offered Equity",
	schema.ColValuationRequested:  "Valuation Requested",
	schema.ColMonthlySales:        "Monthly Sales",
	schema.ColDealAmount:          "Total Deal Amount",
	schema.ColDealEquity:          "Total Deal Equity",
	schema.ColDealValuation:       "Deal Valuation",
	schema.ColBusinessDescription: "Business Description",
}

// IndiaAdapter is the bespoke adapter for the Shark Tank India dataset.
// It still produces canonical rows satisfying the same field contract as
// the default adapter.
type IndiaAdapter struct {
	country *config.Country
}

// NewIndiaAdapter creates the India-specific adapter.
func NewIndiaAdapter(country *config.Country) *IndiaAdapter {
	return &IndiaAdapter{country: country}
}

// Load reads the raw corpus from disk.
func (a *IndiaAdapter) Load(path string) (*dataset.Table, error) {
	return dataset.LoadCSV(path)
}

// InvestorNames returns the fixed India roster.
func (a *IndiaAdapter) InvestorNames() []string {
	names := make([]string, len(indiaRoster))
	copy(names, indiaRoster)
	return names
}

// ToCanonical converts India rows using the literal column list. Raw
// investor columns follow the "<Name> Present" / "<Name> Investment Amount"
// / "<Name> Investment Equity" convention; missing columns become 0.
func (a *IndiaAdapter) ToCanonical(raw *dataset.Table) (*schema.Frame, error) {
	out := schema.NewFrame(raw.Rows())

	ordered := []string{
		schema.ColIndustry,
		schema.ColAskAmount,
		schema.ColAskEquity,
		schema.ColValuationRequested,
		schema.ColMonthlySales,
		schema.ColDealAmount,
		schema.ColDealEquity,
		schema.ColDealValuation,
		schema.ColBusinessDescription,
	}
	for _, canonical := range ordered {
		rawCol := indiaColumns[canonical]
		if !raw.HasColumn(rawCol) {
			out.FillNumeric(canonical, math.NaN())
			continue
		}
		if canonical == schema.ColIndustry || canonical == schema.ColBusinessDescription {
			out.SetCategorical(canonical, raw.StringColumn(rawCol))
		} else {
			out.SetNumeric(canonical, raw.NumericColumn(rawCol))
		}
	}

	addTextFallbacks(out, raw)

	for _, name := range indiaRoster {
		setInvestorField(out, raw, schema.InvestorPresentColumn(name), name+" Present")
		setInvestorField(out, raw, schema.InvestorAmountColumn(name), name+" Investment Amount")
		setInvestorField(out, raw, schema.InvestorEquityColumn(name), name+" Investment Equity")
	}
	return out, nil
}
