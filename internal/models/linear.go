package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearRegression is an ordinary-least-squares regressor with intercept,
// solved via gonum's QR-based least-squares solver.
type LinearRegression struct {
	Weights []float64 `msgpack:"weights"`
	Bias    float64   `msgpack:"bias"`
}

// FitLinearRegression solves min ||Xw - y|| with an intercept column.
func FitLinearRegression(x [][]float64, y []float64) (*LinearRegression, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return nil, fmt.Errorf("linear fit requires matching non-empty X and y, got %d rows and %d targets", n, len(y))
	}
	p := len(x[0])

	// Design matrix with leading intercept column.
	a := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		a.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			a.Set(i, j+1, x[i][j])
		}
	}
	b := mat.NewVecDense(n, nil)
	for i, v := range y {
		b.SetVec(i, v)
	}

	var params mat.VecDense
	if err := params.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("least squares solve failed: %w", err)
	}

	weights := make([]float64, p)
	for j := 0; j < p; j++ {
		weights[j] = params.AtVec(j + 1)
	}
	return &LinearRegression{Weights: weights, Bias: params.AtVec(0)}, nil
}

// Predict returns the linear combination for one feature vector.
func (m *LinearRegression) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("linear model expects %d features, got %d", len(m.Weights), len(x))
	}
	v := m.Bias
	for j, w := range m.Weights {
		v += w * x[j]
	}
	return v, nil
}
