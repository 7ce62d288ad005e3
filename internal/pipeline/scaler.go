package pipeline

import (
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/tankintel/internal/schema"
)

// Scaler standardizes numeric columns to zero mean and unit variance.
// Binary-valued columns (including one-hot indicators) are left unscaled,
// and constant or empty columns are skipped rather than raising. The fitted
// column list with its means and deviations is persisted inside every
// artifact so transform-only scaling touches exactly the trained columns.
type Scaler struct {
	Columns []string  `msgpack:"columns"`
	Means   []float64 `msgpack:"means"`
	Stds    []float64 `msgpack:"stds"`
}

// Fit standardizes every eligible numeric column in place and records the
// fitted state. A column is eligible when its cardinality is not exactly 2
// and its deviation is nonzero.
func (s *Scaler) Fit(f *schema.Frame) {
	s.Columns = nil
	s.Means = nil
	s.Stds = nil

	for _, col := range f.Columns() {
		vals := f.Numeric(col)
		if len(vals) == 0 {
			continue
		}
		if cardinality(vals) == 2 {
			continue // binary indicator, left unscaled
		}
		mean := stat.Mean(vals, nil)
		std := stat.PopStdDev(vals, nil)
		if std == 0 {
			continue // constant column, skipped
		}
		for i, v := range vals {
			vals[i] = (v - mean) / std
		}
		s.Columns = append(s.Columns, col)
		s.Means = append(s.Means, mean)
		s.Stds = append(s.Stds, std)
	}
}

// Transform scales only the columns the fitted scaler was trained on,
// restricted to columns present in the input; everything else is ignored.
func (s *Scaler) Transform(f *schema.Frame) {
	for i, col := range s.Columns {
		vals := f.Numeric(col)
		if vals == nil {
			continue
		}
		mean, std := s.Means[i], s.Stds[i]
		for j, v := range vals {
			vals[j] = (v - mean) / std
		}
	}
}

// cardinality counts distinct values in a column.
func cardinality(vals []float64) int {
	seen := make(map[float64]struct{}, 4)
	for _, v := range vals {
		seen[v] = struct{}{}
		if len(seen) > 2 {
			break
		}
	}
	return len(seen)
}
