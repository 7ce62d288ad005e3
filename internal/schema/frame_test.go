package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_ColumnOrder(t *testing.T) {
	f := NewFrame(2)
	f.SetNumeric("b", []float64{1, 2})
	f.SetCategorical("a", []string{"x", "y"})
	f.SetNumeric("c", []float64{3, 4})

	assert.Equal(t, []string{"b", "a", "c"}, f.Columns())

	// Replacing a column keeps its original position.
	f.SetNumeric("a", []float64{9, 9})
	assert.Equal(t, []string{"b", "a", "c"}, f.Columns())
	assert.Equal(t, Numeric, f.Kind("a"))
}

func TestFrame_Drop(t *testing.T) {
	f := NewFrame(1)
	f.SetNumeric("a", []float64{1})
	f.SetNumeric("b", []float64{2})
	f.SetNumeric("c", []float64{3})

	f.Drop("b", "nonexistent")

	assert.Equal(t, []string{"a", "c"}, f.Columns())
	assert.False(t, f.Has("b"))
}

func TestFrame_SelectCopies(t *testing.T) {
	f := NewFrame(2)
	f.SetNumeric("a", []float64{1, 2})

	sel := f.Select("a")
	sel.Numeric("a")[0] = 99

	assert.Equal(t, 1.0, f.Numeric("a")[0])
}

func TestFrame_TakeRows(t *testing.T) {
	f := NewFrame(4)
	f.SetNumeric("x", []float64{10, 20, 30, 40})
	f.SetCategorical("s", []string{"a", "b", "c", "d"})

	sub := f.TakeRows([]int{3, 1})

	require.Equal(t, 2, sub.Rows())
	assert.Equal(t, []float64{40, 20}, sub.Numeric("x"))
	assert.Equal(t, []string{"d", "b"}, sub.Categorical("s"))
}

func TestFrame_Matrix(t *testing.T) {
	f := NewFrame(2)
	f.SetNumeric("a", []float64{1, 2})
	f.SetNumeric("b", []float64{3, 4})

	m, err := f.Matrix([]string{"b", "missing", "a"})
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{3, 0, 1}, {4, 0, 2}}, m)
}

func TestFrame_MatrixCategoricalError(t *testing.T) {
	f := NewFrame(1)
	f.SetCategorical("industry", []string{"Food"})

	_, err := f.Matrix([]string{"industry"})
	assert.Error(t, err)
}

func TestRecord_Frame(t *testing.T) {
	rec := Record{
		"ask_amount":   100.0,
		"ask_equity":   10,
		"industry":     "Food",
		"extra_flag":   true,
		"missing_info": nil,
	}

	f := rec.Frame()

	require.Equal(t, 1, f.Rows())
	assert.Equal(t, []float64{100}, f.Numeric("ask_amount"))
	assert.Equal(t, []float64{10}, f.Numeric("ask_equity"))
	assert.Equal(t, []string{"Food"}, f.Categorical("industry"))
	assert.Equal(t, []float64{1}, f.Numeric("extra_flag"))
	assert.True(t, math.IsNaN(f.Numeric("missing_info")[0]))

	// Canonical columns come first regardless of map iteration order.
	cols := f.Columns()
	assert.Equal(t, "industry", cols[0])
	assert.Equal(t, "ask_amount", cols[1])
	assert.Equal(t, "ask_equity", cols[2])
}

func TestInvestorColumns(t *testing.T) {
	assert.Equal(t, "namita_present", InvestorPresentColumn("Namita"))
	assert.Equal(t, "namita_investment_amount", InvestorAmountColumn("Namita"))
	assert.Equal(t, "namita_invested", InvestorInvestedColumn("Namita"))
	assert.True(t, IsPresentColumn("aman_present"))
	assert.False(t, IsPresentColumn("ask_amount"))
}

func TestIsOutcomeVariable(t *testing.T) {
	for _, col := range OutcomeVariables() {
		assert.True(t, IsOutcomeVariable(col), col)
	}
	assert.False(t, IsOutcomeVariable("ask_amount"))
	assert.False(t, IsOutcomeVariable("got_deal"))
}
