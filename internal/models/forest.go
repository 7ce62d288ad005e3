package models

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest is a bagged ensemble of CART trees. The same structure
// serves classification (mean leaf probability) and regression (mean leaf
// value).
type RandomForest struct {
	Trees      []*DecisionTree `msgpack:"trees"`
	NFeatures  int             `msgpack:"n_features"`
	Regression bool            `msgpack:"regression"`
}

// ForestConfig controls forest fitting.
type ForestConfig struct {
	NTrees         int // 0 picks the default of 100
	MaxDepth       int
	MinSamplesLeaf int
	Regression     bool
	Seed           int64
}

// FitRandomForest fits a bootstrap-aggregated forest. Classification trees
// consider sqrt(p) features per split, regression trees p/3.
func FitRandomForest(x [][]float64, y []float64, cfg ForestConfig) (*RandomForest, error) {
	if len(x) == 0 || len(y) != len(x) {
		return nil, fmt.Errorf("forest fit requires matching non-empty X and y, got %d rows and %d targets", len(x), len(y))
	}
	p := len(x[0])

	nTrees := cfg.NTrees
	if nTrees <= 0 {
		nTrees = 100
	}
	mtry := int(math.Sqrt(float64(p)))
	if cfg.Regression {
		mtry = p / 3
	}
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	forest := &RandomForest{
		Trees:      make([]*DecisionTree, 0, nTrees),
		NFeatures:  p,
		Regression: cfg.Regression,
	}

	n := len(x)
	for t := 0; t < nTrees; t++ {
		bx := make([][]float64, n)
		by := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			bx[i] = x[j]
			by[i] = y[j]
		}
		tree, err := FitDecisionTree(bx, by, TreeConfig{
			MaxDepth:       cfg.MaxDepth,
			MinSamplesLeaf: cfg.MinSamplesLeaf,
			MTry:           mtry,
			Seed:           rng.Int63(),
		})
		if err != nil {
			return nil, fmt.Errorf("forest tree %d: %w", t, err)
		}
		forest.Trees = append(forest.Trees, tree)
	}
	return forest, nil
}

// PredictProba averages the leaf probabilities across all trees.
func (m *RandomForest) PredictProba(x []float64) (float64, error) {
	return m.average(x)
}

// Predict averages the leaf values across all trees.
func (m *RandomForest) Predict(x []float64) (float64, error) {
	return m.average(x)
}

func (m *RandomForest) average(x []float64) (float64, error) {
	if len(m.Trees) == 0 {
		return 0, fmt.Errorf("forest has no trees")
	}
	var sum float64
	for _, tree := range m.Trees {
		v, err := tree.PredictValue(x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(m.Trees)), nil
}

// FeatureImportances averages the per-tree impurity-decrease importances.
func (m *RandomForest) FeatureImportances() []float64 {
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
	for i := range out {
		out[i] /= float64(len(m.Trees))
		total += out[i]
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}
