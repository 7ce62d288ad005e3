package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is an L2-regularized logistic classifier fit by
// numerical optimization. Class weights are balanced so the minority class
// is not drowned out on the heavily imbalanced deal datasets.
type LogisticRegression struct {
	Weights []float64 `msgpack:"weights"`
	Bias    float64   `msgpack:"bias"`
}

// LogisticConfig controls fitting.
type LogisticConfig struct {
	Lambda float64 // L2 penalty; 0 picks the default
}

// FitLogisticRegression fits the classifier on a feature matrix and 0/1
// targets. BFGS is attempted first; if it fails to converge the fit falls
// back to Nelder-Mead before giving up.
func FitLogisticRegression(x [][]float64, y []float64, cfg LogisticConfig) (*LogisticRegression, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return nil, fmt.Errorf("logistic fit requires matching non-empty X and y, got %d rows and %d targets", n, len(y))
	}
	p := len(x[0])

	lambda := cfg.Lambda
	if lambda == 0 {
		lambda = 1.0
	}

	// Balanced class weights: n / (2 * n_class).
	var positives float64
	for _, v := range y {
		if v > 0 {
			positives++
		}
	}
	negatives := float64(n) - positives
	wPos, wNeg := 1.0, 1.0
	if positives > 0 && negatives > 0 {
		wPos = float64(n) / (2 * positives)
		wNeg = float64(n) / (2 * negatives)
	}

	// Parameter vector layout: [bias, w_1 .. w_p].
	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			var loss float64
			for i := 0; i < n; i++ {
				z := params[0]
				for j := 0; j < p; j++ {
					z += params[j+1] * x[i][j]
				}
				w := wNeg
				if y[i] > 0 {
					w = wPos
				}
				// Numerically stable weighted log-loss.
				loss += w * (math.Log1p(math.Exp(-math.Abs(z))) + math.Max(z, 0) - y[i]*z)
			}
			for j := 0; j < p; j++ {
				loss += lambda / 2 * params[j+1] * params[j+1]
			}
			return loss
		},
		Grad: func(grad, params []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < n; i++ {
				z := params[0]
				for j := 0; j < p; j++ {
					z += params[j+1] * x[i][j]
				}
				w := wNeg
				if y[i] > 0 {
					w = wPos
				}
				d := w * (sigmoid(z) - y[i])
				grad[0] += d
				for j := 0; j < p; j++ {
					grad[j+1] += d * x[i][j]
				}
			}
			for j := 0; j < p; j++ {
				grad[j+1] += lambda * params[j+1]
			}
		},
	}

	initial := make([]float64, p+1)
	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("logistic optimization failed: %w", err)
		}
		if !converged(result.Status) {
			return nil, fmt.Errorf("logistic optimization did not converge: status=%v", result.Status)
		}
	}

	weights := make([]float64, p)
	copy(weights, result.X[1:])
	return &LogisticRegression{Weights: weights, Bias: result.X[0]}, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.FunctionThreshold:
		return true
	}
	return false
}

// PredictProba returns the probability of the positive class.
func (m *LogisticRegression) PredictProba(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("logistic model expects %d features, got %d", len(m.Weights), len(x))
	}
	z := m.Bias
	for j, w := range m.Weights {
		z += w * x[j]
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
