package models

import (
	"fmt"
	"math"
)

// GradientBoosting is a boosted ensemble of shallow CART trees fit to the
// functional gradient of the loss: squared error for regression, log-loss
// for classification (trees fit to y - sigmoid(F)).
type GradientBoosting struct {
	Trees        []*DecisionTree `msgpack:"trees"`
	LearningRate float64         `msgpack:"learning_rate"`
	Init         float64         `msgpack:"init"`
	NFeatures    int             `msgpack:"n_features"`
	Regression   bool            `msgpack:"regression"`
}

// BoostingConfig controls boosting.
type BoostingConfig struct {
	NTrees       int     // 0 picks the default of 100
	MaxDepth     int     // 0 picks the default of 3
	LearningRate float64 // 0 picks the default of 0.1
	Regression   bool
	Seed         int64
}

// FitGradientBoosting fits the boosted ensemble.
func FitGradientBoosting(x [][]float64, y []float64, cfg BoostingConfig) (*GradientBoosting, error) {
	if len(x) == 0 || len(y) != len(x) {
		return nil, fmt.Errorf("boosting fit requires matching non-empty X and y, got %d rows and %d targets", len(x), len(y))
	}

	nTrees := cfg.NTrees
	if nTrees <= 0 {
		nTrees = 100
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	lr := cfg.LearningRate
	if lr <= 0 {
		lr = 0.1
	}

	n := len(x)
	var init float64
	if cfg.Regression {
		for _, v := range y {
			init += v
		}
		init /= float64(n)
	} else {
		var pos float64
		for _, v := range y {
			if v > 0 {
				pos++
			}
		}
		prior := clamp(pos/float64(n), 1e-6, 1-1e-6)
		init = math.Log(prior / (1 - prior))
	}

	f := make([]float64, n)
	for i := range f {
		f[i] = init
	}

	model := &GradientBoosting{
		LearningRate: lr,
		Init:         init,
		NFeatures:    len(x[0]),
		Regression:   cfg.Regression,
	}

	residual := make([]float64, n)
	for t := 0; t < nTrees; t++ {
		for i := 0; i < n; i++ {
			if cfg.Regression {
				residual[i] = y[i] - f[i]
			} else {
				residual[i] = y[i] - sigmoid(f[i])
			}
		}
		tree, err := FitDecisionTree(x, residual, TreeConfig{
			MaxDepth:       maxDepth,
			MinSamplesLeaf: 2,
			Seed:           cfg.Seed + int64(t),
		})
		if err != nil {
			return nil, fmt.Errorf("boosting stage %d: %w", t, err)
		}
		model.Trees = append(model.Trees, tree)
		for i := 0; i < n; i++ {
			v, err := tree.PredictValue(x[i])
			if err != nil {
				return nil, err
			}
			f[i] += lr * v
		}
	}
	return model, nil
}

func (m *GradientBoosting) raw(x []float64) (float64, error) {
	f := m.Init
	for _, tree := range m.Trees {
		v, err := tree.PredictValue(x)
		if err != nil {
			return 0, err
		}
		f += m.LearningRate * v
	}
	return f, nil
}

// PredictProba returns sigmoid of the boosted raw score.
func (m *GradientBoosting) PredictProba(x []float64) (float64, error) {
	f, err := m.raw(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(f), nil
}

// Predict returns the boosted raw score.
func (m *GradientBoosting) Predict(x []float64) (float64, error) {
	return m.raw(x)
}

// FeatureImportances sums the per-stage impurity-decrease importances.
func (m *GradientBoosting) FeatureImportances() []float64 {
	if len(m.Trees) == 0 {
		return nil
	}
	out := make([]float64, m.NFeatures)
	for _, tree := range m.Trees {
		for i, v := range tree.Importances {
			out[i] += v
		}
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
