package pipeline

import (
	"sort"

	"github.com/aristath/tankintel/internal/schema"
)

const industryPrefix = schema.ColIndustry + "_"

// Encoder holds the categorical vocabulary captured at fit time. It is
// persisted inside every model artifact so transform-only encoding always
// reproduces the fit-time column set: re-encoding from the current data
// alone would silently drift the feature space between fit and inference.
type Encoder struct {
	IndustryColumns []string `msgpack:"industry_columns"`
}

// Fit one-hot-expands the industry column, recording the observed category
// vocabulary, and returns the fitted encoder. Indicator columns are named
// industry_<category> and appended after the remaining columns.
func (e *Encoder) Fit(f *schema.Frame) {
	vals := f.Categorical(schema.ColIndustry)
	if vals == nil {
		e.IndustryColumns = []string{}
		return
	}

	seen := make(map[string]bool)
	for _, v := range vals {
		seen[v] = true
	}
	categories := make([]string, 0, len(seen))
	for v := range seen {
		categories = append(categories, v)
	}
	sort.Strings(categories)

	e.IndustryColumns = make([]string, len(categories))
	for i, c := range categories {
		e.IndustryColumns[i] = industryPrefix + c
	}

	expand(f, vals, e.IndustryColumns)
}

// Transform one-hot-expands the industry column against the stored
// vocabulary: categories unseen at fit time are dropped silently, and
// categories seen at fit time but absent from the input get an all-zero
// column. The resulting indicator column set always equals the fit-time set.
func (e *Encoder) Transform(f *schema.Frame) {
	vals := f.Categorical(schema.ColIndustry)
	if vals == nil {
		// No industry field supplied: zero columns for the whole vocabulary.
		for _, col := range e.IndustryColumns {
			if !f.Has(col) {
				f.FillNumeric(col, 0)
			}
		}
		return
	}
	expand(f, vals, e.IndustryColumns)
}

func expand(f *schema.Frame, vals []string, columns []string) {
	f.Drop(schema.ColIndustry)
	for _, col := range columns {
		category := col[len(industryPrefix):]
		indicator := make([]float64, len(vals))
		for i, v := range vals {
			if v == category {
				indicator[i] = 1
			}
		}
		f.SetNumeric(col, indicator)
	}
}
