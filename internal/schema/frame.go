package schema

import (
	"fmt"
	"math"
)

// ColumnKind distinguishes numeric from categorical columns.
type ColumnKind int

const (
	// Numeric columns hold float64 values with NaN as the missing marker.
	Numeric ColumnKind = iota
	// Categorical columns hold strings with "" as the missing marker.
	Categorical
)

// Column is one named column of a Frame.
type Column struct {
	Kind ColumnKind
	Nums []float64
	Strs []string
}

// Frame is a small column-oriented table with a stable column order.
// It is the shape that flows between the schema adapters and the feature
// pipeline; it deliberately supports only the operations the pipeline needs.
type Frame struct {
	order []string
	cols  map[string]*Column
	rows  int
}

// NewFrame creates an empty frame with a fixed row count.
func NewFrame(rows int) *Frame {
	return &Frame{cols: make(map[string]*Column), rows: rows}
}

// Rows returns the number of rows.
func (f *Frame) Rows() int { return f.rows }

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Kind returns the kind of a column. The column must exist.
func (f *Frame) Kind(name string) ColumnKind {
	return f.cols[name].Kind
}

// SetNumeric sets or replaces a numeric column. The slice is used as-is.
func (f *Frame) SetNumeric(name string, vals []float64) {
	if len(vals) != f.rows {
		panic(fmt.Sprintf("frame: column %s has %d values, want %d", name, len(vals), f.rows))
	}
	if _, ok := f.cols[name]; !ok {
		f.order = append(f.order, name)
	}
	f.cols[name] = &Column{Kind: Numeric, Nums: vals}
}

// SetCategorical sets or replaces a categorical column. The slice is used as-is.
func (f *Frame) SetCategorical(name string, vals []string) {
	if len(vals) != f.rows {
		panic(fmt.Sprintf("frame: column %s has %d values, want %d", name, len(vals), f.rows))
	}
	if _, ok := f.cols[name]; !ok {
		f.order = append(f.order, name)
	}
	f.cols[name] = &Column{Kind: Categorical, Strs: vals}
}

// FillNumeric sets a numeric column where every row holds the same value.
func (f *Frame) FillNumeric(name string, val float64) {
	vals := make([]float64, f.rows)
	for i := range vals {
		vals[i] = val
	}
	f.SetNumeric(name, vals)
}

// Numeric returns the backing slice of a numeric column, or nil if the
// column is absent or categorical.
func (f *Frame) Numeric(name string) []float64 {
	c, ok := f.cols[name]
	if !ok || c.Kind != Numeric {
		return nil
	}
	return c.Nums
}

// Categorical returns the backing slice of a categorical column, or nil.
func (f *Frame) Categorical(name string) []string {
	c, ok := f.cols[name]
	if !ok || c.Kind != Categorical {
		return nil
	}
	return c.Strs
}

// Drop removes columns by name. Missing names are ignored.
func (f *Frame) Drop(names ...string) {
	dropped := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := f.cols[n]; ok {
			dropped[n] = true
			delete(f.cols, n)
		}
	}
	if len(dropped) == 0 {
		return
	}
	kept := f.order[:0]
	for _, n := range f.order {
		if !dropped[n] {
			kept = append(kept, n)
		}
	}
	f.order = kept
}

// Select returns a new frame holding copies of the named columns, in the
// given order. Unknown names are skipped.
func (f *Frame) Select(names ...string) *Frame {
	out := NewFrame(f.rows)
	for _, n := range names {
		c, ok := f.cols[n]
		if !ok {
			continue
		}
		switch c.Kind {
		case Numeric:
			vals := make([]float64, f.rows)
			copy(vals, c.Nums)
			out.SetNumeric(n, vals)
		case Categorical:
			vals := make([]string, f.rows)
			copy(vals, c.Strs)
			out.SetCategorical(n, vals)
		}
	}
	return out
}

// Copy returns a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	return f.Select(f.order...)
}

// TakeRows returns a new frame holding copies of the given row indices.
func (f *Frame) TakeRows(idx []int) *Frame {
	out := NewFrame(len(idx))
	for _, n := range f.order {
		c := f.cols[n]
		switch c.Kind {
		case Numeric:
			vals := make([]float64, len(idx))
			for i, r := range idx {
				vals[i] = c.Nums[r]
			}
			out.SetNumeric(n, vals)
		case Categorical:
			vals := make([]string, len(idx))
			for i, r := range idx {
				vals[i] = c.Strs[r]
			}
			out.SetCategorical(n, vals)
		}
	}
	return out
}

// Matrix materializes the frame as row-major float64 vectors, with columns
// in exactly the given order. Absent columns are zero-filled; categorical
// columns cannot be materialized and cause an error.
func (f *Frame) Matrix(columns []string) ([][]float64, error) {
	out := make([][]float64, f.rows)
	for i := range out {
		out[i] = make([]float64, len(columns))
	}
	for j, name := range columns {
		c, ok := f.cols[name]
		if !ok {
			continue // zero-filled
		}
		if c.Kind != Numeric {
			return nil, fmt.Errorf("frame: column %s is categorical, cannot build matrix", name)
		}
		for i := 0; i < f.rows; i++ {
			out[i][j] = c.Nums[i]
		}
	}
	return out, nil
}

// Record is a flat canonical input record, as accepted at the inference
// boundary. Values may be numeric (any Go number type) or strings.
type Record map[string]any

// Frame converts a single record into a one-row frame. Numeric-looking
// values become numeric columns; strings become categorical columns.
func (r Record) Frame() *Frame {
	f := NewFrame(1)
	// Keep canonical columns first so the frame order is deterministic.
	emit := func(key string, val any) {
		switch v := val.(type) {
		case float64:
			f.SetNumeric(key, []float64{v})
		case float32:
			f.SetNumeric(key, []float64{float64(v)})
		case int:
			f.SetNumeric(key, []float64{float64(v)})
		case int64:
			f.SetNumeric(key, []float64{float64(v)})
		case bool:
			b := 0.0
			if v {
				b = 1.0
			}
			f.SetNumeric(key, []float64{b})
		case string:
			f.SetCategorical(key, []string{v})
		case nil:
			f.SetNumeric(key, []float64{math.NaN()})
		}
	}
	for _, key := range CanonicalFeatures() {
		if val, ok := r[key]; ok {
			emit(key, val)
		}
	}
	for key, val := range r {
		if f.Has(key) {
			continue
		}
		emit(key, val)
	}
	return f
}
