package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tankintel/internal/schema"
)

func TestHandleMissingValues_MedianFill(t *testing.T) {
	f := schema.NewFrame(5)
	f.SetNumeric(schema.ColAskAmount, []float64{10, math.NaN(), 30, 20, math.NaN()})
	f.SetCategorical(schema.ColIndustry, []string{"Food", "", "Tech", "", "Food"})

	HandleMissingValues(f)

	assert.Equal(t, []float64{10, 20, 30, 20, 20}, f.Numeric(schema.ColAskAmount))
	assert.Equal(t, []string{"Food", "Unknown", "Tech", "Unknown", "Food"}, f.Categorical(schema.ColIndustry))
}

func TestHandleMissingValues_AllMissingColumnFilledWithZero(t *testing.T) {
	f := schema.NewFrame(2)
	f.SetNumeric(schema.ColMonthlySales, []float64{math.NaN(), math.NaN()})

	HandleMissingValues(f)

	assert.Equal(t, []float64{0, 0}, f.Numeric(schema.ColMonthlySales))
}

func TestHandleMissingValues_OutcomesNeverMedianFilled(t *testing.T) {
	f := schema.NewFrame(3)
	f.SetNumeric(schema.ColDealAmount, []float64{100, math.NaN(), 300})

	HandleMissingValues(f)

	// NaN outcomes become 0, never the batch median.
	assert.Equal(t, []float64{100, 0, 300}, f.Numeric(schema.ColDealAmount))
}

func TestCreateTargets_GotDealPreferred(t *testing.T) {
	f := schema.NewFrame(3)
	f.SetNumeric(schema.ColGotDeal, []float64{1, 0, 1})
	f.SetNumeric(schema.ColReceivedOffer, []float64{0, 1, 0})
	f.SetNumeric(schema.ColDealAmount, []float64{0, 500, 0})

	CreateTargets(f)

	assert.Equal(t, []float64{1, 0, 1}, f.Numeric(schema.ColDeal))
}

func TestCreateTargets_FallbackChain(t *testing.T) {
	t.Run("received_offer", func(t *testing.T) {
		f := schema.NewFrame(2)
		f.SetNumeric(schema.ColReceivedOffer, []float64{1, 0})
		CreateTargets(f)
		assert.Equal(t, []float64{1, 0}, f.Numeric(schema.ColDeal))
	})

	t.Run("deal_amount", func(t *testing.T) {
		f := schema.NewFrame(2)
		f.SetNumeric(schema.ColDealAmount, []float64{250, 0})
		CreateTargets(f)
		assert.Equal(t, []float64{1, 0}, f.Numeric(schema.ColDeal))
	})

	t.Run("nothing available", func(t *testing.T) {
		f := schema.NewFrame(2)
		f.SetNumeric(schema.ColAskAmount, []float64{1, 2})
		CreateTargets(f)
		assert.Equal(t, []float64{0, 0}, f.Numeric(schema.ColDeal))
	})
}

func TestCreateTargets_ValuationDerived(t *testing.T) {
	f := schema.NewFrame(4)
	f.SetNumeric(schema.ColDealAmount, []float64{100, 0, 50, 100})
	f.SetNumeric(schema.ColDealEquity, []float64{10, 10, 0, 150})

	CreateTargets(f)

	valuation := f.Numeric(schema.ColValuation)
	assert.Equal(t, 1000.0, valuation[0])
	assert.True(t, math.IsNaN(valuation[1]), "no deal means undefined, not zero")
	assert.True(t, math.IsNaN(valuation[2]), "zero equity means undefined")
	assert.True(t, math.IsNaN(valuation[3]), "equity above 100 means undefined")
}

func TestCreateTargets_ValuationExplicitColumn(t *testing.T) {
	f := schema.NewFrame(2)
	f.SetNumeric(schema.ColDealValuation, []float64{5000, 0})
	f.SetNumeric(schema.ColDealAmount, []float64{100, 0})
	f.SetNumeric(schema.ColDealEquity, []float64{10, 10})

	CreateTargets(f)

	assert.Equal(t, []float64{5000, 0}, f.Numeric(schema.ColValuation))
}

func TestSelectFeatures_ExcludesRawOutcomes(t *testing.T) {
	f := schema.NewFrame(1)
	f.SetNumeric(schema.ColAskAmount, []float64{1})
	f.SetNumeric(schema.ColDealAmount, []float64{1})
	f.SetNumeric(schema.ColDealEquity, []float64{1})
	f.SetNumeric("namita_present", []float64{1})
	f.SetNumeric(schema.ColDeal, []float64{1})

	sel := SelectFeatures(f, true)

	assert.False(t, sel.Has(schema.ColDealAmount))
	assert.False(t, sel.Has(schema.ColDealEquity))
	assert.True(t, sel.Has("namita_present"))
	assert.True(t, sel.Has(schema.ColDeal), "derived target kept when requested")

	sel = SelectFeatures(f, false)
	assert.False(t, sel.Has(schema.ColDeal))
}

func newTrainingFrame() *schema.Frame {
	f := schema.NewFrame(6)
	f.SetCategorical(schema.ColIndustry, []string{"Food", "Tech", "Food", "Tech", "Health", "Food"})
	f.SetNumeric(schema.ColAskAmount, []float64{100, 200, 150, 300, 250, 120})
	f.SetNumeric(schema.ColAskEquity, []float64{10, 15, 8, 20, 12, 9})
	f.SetNumeric(schema.ColValuationRequested, []float64{1000, 1333, 1875, 1500, 2083, 1333})
	f.SetNumeric(schema.ColMonthlySales, []float64{50, 80, 20, 90, 60, 30})
	f.SetNumeric("namita_present", []float64{1, 1, 0, 1, 0, 1})
	f.SetNumeric(schema.ColGotDeal, []float64{1, 0, 1, 1, 0, 0})
	f.SetNumeric(schema.ColDealAmount, []float64{100, 0, 150, 300, 0, 0})
	f.SetNumeric(schema.ColDealEquity, []float64{10, 0, 10, 15, 0, 0})
	return f
}

func TestFit_ProducesCleanFeatureSpace(t *testing.T) {
	res, err := Fit(newTrainingFrame())
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0, 1, 1, 0, 0}, res.Y)
	for _, name := range res.FeatureNames {
		assert.False(t, schema.IsOutcomeVariable(name), name)
	}
	assert.Contains(t, res.FeatureNames, "industry_Food")
	assert.Contains(t, res.FeatureNames, "industry_Tech")
	assert.Contains(t, res.FeatureNames, "industry_Health")
	assert.NotContains(t, res.FeatureNames, schema.ColIndustry)
	assert.Contains(t, res.FeatureNames, "namita_present")
}

func TestTransform_ReproducesFitFeatureSpace(t *testing.T) {
	res, err := Fit(newTrainingFrame())
	require.NoError(t, err)

	// A sparse record with an unseen industry and no investor flags.
	rec := schema.Record{
		schema.ColIndustry:  "Aerospace",
		schema.ColAskAmount: 500.0,
	}
	out, err := Transform(rec.Frame(), res.Encoder, res.Scaler, res.FeatureNames)
	require.NoError(t, err)

	assert.Equal(t, res.FeatureNames, out.Columns())
	assert.Equal(t, 1, out.Rows())

	// Unseen category contributes nothing to any indicator.
	for _, col := range []string{"industry_Food", "industry_Tech", "industry_Health"} {
		assert.Equal(t, 0.0, out.Numeric(col)[0], col)
	}
	// Missing investor flag is zero-filled.
	assert.Equal(t, 0.0, out.Numeric("namita_present")[0])
}

func TestTransform_RequiresFittedState(t *testing.T) {
	_, err := Transform(schema.NewFrame(1), nil, nil, nil)
	assert.Error(t, err)
}

func TestTransform_RejectsOutcomeFeatureNames(t *testing.T) {
	_, err := Transform(schema.NewFrame(1), &Encoder{}, &Scaler{}, []string{schema.ColDeal})
	assert.Error(t, err)
}

func TestEncoder_TransformAlignsToStoredVocabulary(t *testing.T) {
	enc := &Encoder{IndustryColumns: []string{"industry_Food", "industry_Tech"}}

	f := schema.NewFrame(2)
	f.SetCategorical(schema.ColIndustry, []string{"Tech", "Gaming"})

	enc.Transform(f)

	assert.False(t, f.Has(schema.ColIndustry))
	assert.Equal(t, []float64{0, 0}, f.Numeric("industry_Food"))
	assert.Equal(t, []float64{1, 0}, f.Numeric("industry_Tech"))
	assert.False(t, f.Has("industry_Gaming"), "unseen categories are dropped")
}

func TestEncoder_TransformWithoutIndustryColumn(t *testing.T) {
	enc := &Encoder{IndustryColumns: []string{"industry_Food"}}

	f := schema.NewFrame(1)
	f.SetNumeric(schema.ColAskAmount, []float64{10})

	enc.Transform(f)

	assert.Equal(t, []float64{0}, f.Numeric("industry_Food"))
}

func TestScaler_SkipsBinaryAndConstantColumns(t *testing.T) {
	f := schema.NewFrame(4)
	f.SetNumeric(schema.ColAskAmount, []float64{10, 20, 30, 40})
	f.SetNumeric("namita_present", []float64{1, 0, 1, 0})
	f.SetNumeric("constant", []float64{7, 7, 7, 7})

	s := &Scaler{}
	s.Fit(f)

	assert.Equal(t, []string{schema.ColAskAmount}, s.Columns)
	assert.Equal(t, []float64{1, 0, 1, 0}, f.Numeric("namita_present"))
	assert.Equal(t, []float64{7, 7, 7, 7}, f.Numeric("constant"))

	scaled := f.Numeric(schema.ColAskAmount)
	var sum float64
	for _, v := range scaled {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-9)
}

func TestScaler_TransformUsesStoredState(t *testing.T) {
	s := &Scaler{
		Columns: []string{schema.ColAskAmount},
		Means:   []float64{25},
		Stds:    []float64{5},
	}

	f := schema.NewFrame(1)
	f.SetNumeric(schema.ColAskAmount, []float64{30})
	f.SetNumeric("untouched", []float64{30})

	s.Transform(f)

	assert.Equal(t, []float64{1}, f.Numeric(schema.ColAskAmount))
	assert.Equal(t, []float64{30}, f.Numeric("untouched"))
}
