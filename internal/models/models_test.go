package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData is a linearly separable binary problem on one feature.
func separableData() ([][]float64, []float64) {
	x := [][]float64{{-3}, {-2.5}, {-2}, {-1.5}, {-1}, {1}, {1.5}, {2}, {2.5}, {3}}
	y := []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	return x, y
}

func TestLogisticRegression_SeparatesClasses(t *testing.T) {
	x, y := separableData()
	model, err := FitLogisticRegression(x, y, LogisticConfig{})
	require.NoError(t, err)

	low, err := model.PredictProba([]float64{-2})
	require.NoError(t, err)
	high, err := model.PredictProba([]float64{2})
	require.NoError(t, err)

	assert.Less(t, low, 0.5)
	assert.Greater(t, high, 0.5)
}

func TestLinearRegression_RecoversLine(t *testing.T) {
	// y = 2x + 1 exactly.
	x := [][]float64{{0}, {1}, {2}, {3}, {4}}
	y := []float64{1, 3, 5, 7, 9}

	model, err := FitLinearRegression(x, y)
	require.NoError(t, err)

	pred, err := model.Predict([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 21, pred, 1e-6)
}

func TestLinearRegression_DimensionMismatch(t *testing.T) {
	model := &LinearRegression{Weights: []float64{1, 2}, Bias: 0}
	_, err := model.Predict([]float64{1})
	assert.Error(t, err)
}

func TestDecisionTree_FitsStepFunction(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {10}, {11}, {12}, {13}}
	y := []float64{0, 0, 0, 0, 1, 1, 1, 1}

	tree, err := FitDecisionTree(x, y, TreeConfig{})
	require.NoError(t, err)

	lo, err := tree.PredictValue([]float64{2.5})
	require.NoError(t, err)
	hi, err := tree.PredictValue([]float64{11.5})
	require.NoError(t, err)

	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestRandomForest_ClassificationAndImportances(t *testing.T) {
	x, y := separableData()
	model, err := FitRandomForest(x, y, ForestConfig{NTrees: 20, Seed: 1})
	require.NoError(t, err)

	p, err := model.PredictProba([]float64{2.5})
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)

	imp := model.FeatureImportances()
	require.Len(t, imp, 1)
	assert.InDelta(t, 1.0, imp[0], 1e-9, "single informative feature gets all importance")
}

func TestRandomForest_Deterministic(t *testing.T) {
	x, y := separableData()
	a, err := FitRandomForest(x, y, ForestConfig{NTrees: 10, Seed: 42})
	require.NoError(t, err)
	b, err := FitRandomForest(x, y, ForestConfig{NTrees: 10, Seed: 42})
	require.NoError(t, err)

	pa, _ := a.PredictProba([]float64{0.3})
	pb, _ := b.PredictProba([]float64{0.3})
	assert.Equal(t, pa, pb)
}

func TestGradientBoosting_Regression(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}
	y := []float64{2, 4, 6, 8, 10, 12, 14, 16}

	model, err := FitGradientBoosting(x, y, BoostingConfig{NTrees: 50, Regression: true, Seed: 1})
	require.NoError(t, err)

	pred, err := model.Predict([]float64{4.5})
	require.NoError(t, err)
	assert.InDelta(t, 9, pred, 2.0)
}

func TestGradientBoosting_ClassificationProbabilityBounds(t *testing.T) {
	x, y := separableData()
	model, err := FitGradientBoosting(x, y, BoostingConfig{NTrees: 30, Seed: 1})
	require.NoError(t, err)

	for _, v := range []float64{-5, 0, 5} {
		p, err := model.PredictProba([]float64{v})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestEnvelope_WrapAndUnwrap(t *testing.T) {
	x, y := separableData()

	logit, err := FitLogisticRegression(x, y, LogisticConfig{})
	require.NoError(t, err)
	env, err := Wrap(logit)
	require.NoError(t, err)
	assert.Equal(t, KindLogistic, env.Kind)

	clf, err := env.Classifier()
	require.NoError(t, err)
	p, err := clf.PredictProba([]float64{2})
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)

	_, err = env.Regressor()
	assert.Error(t, err, "a logistic envelope is not a regressor")

	linear := &LinearRegression{Weights: []float64{1}, Bias: 0}
	env, err = Wrap(linear)
	require.NoError(t, err)
	_, err = env.Classifier()
	assert.Error(t, err)
	_, err = env.Regressor()
	assert.NoError(t, err)
}

func TestEnvelope_FeatureImportances(t *testing.T) {
	x, y := separableData()
	forest, err := FitRandomForest(x, y, ForestConfig{NTrees: 5, Seed: 1})
	require.NoError(t, err)

	env, err := Wrap(forest)
	require.NoError(t, err)
	assert.Len(t, env.FeatureImportances(), 1)

	logitEnv, err := Wrap(&LogisticRegression{Weights: []float64{1}})
	require.NoError(t, err)
	assert.Nil(t, logitEnv.FeatureImportances())
}

func TestAccuracyPrecisionRecall(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0}
	yPred := []float64{1, 0, 1, 0}

	assert.Equal(t, 0.5, Accuracy(yTrue, yPred))
	assert.Equal(t, 0.5, Precision(yTrue, yPred))
	assert.Equal(t, 0.5, Recall(yTrue, yPred))

	assert.Equal(t, 0.0, Precision([]float64{1, 0}, []float64{0, 0}))
	assert.Equal(t, 0.0, Recall([]float64{0, 0}, []float64{1, 0}))
}

func TestROCAUC(t *testing.T) {
	yTrue := []float64{0, 0, 1, 1}
	perfect := []float64{0.1, 0.2, 0.8, 0.9}
	auc, err := ROCAUC(yTrue, perfect)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, auc, 1e-9)

	inverted := []float64{0.9, 0.8, 0.2, 0.1}
	auc, err = ROCAUC(yTrue, inverted)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, auc, 1e-9)
}

func TestROCAUC_SingleClassErrors(t *testing.T) {
	_, err := ROCAUC([]float64{1, 1, 1}, []float64{0.1, 0.5, 0.9})
	assert.Error(t, err)
	_, err = ROCAUC([]float64{0, 0}, []float64{0.1, 0.5})
	assert.Error(t, err)
}

func TestRegressionMetrics(t *testing.T) {
	yTrue := []float64{1, 2, 3}
	yPred := []float64{1, 2, 3}

	assert.Equal(t, 0.0, RMSE(yTrue, yPred))
	assert.Equal(t, 0.0, MAE(yTrue, yPred))
	assert.InDelta(t, 1.0, R2(yTrue, yPred), 1e-9)

	assert.True(t, math.IsNaN(RMSE(yTrue, []float64{1})))
}

func TestTrainTestSplit_Stratified(t *testing.T) {
	n := 20
	y := make([]float64, n)
	for i := 15; i < n; i++ {
		y[i] = 1 // 25% positive
	}

	train, test, err := TrainTestSplit(n, 0.2, 42, y)
	require.NoError(t, err)
	assert.Len(t, test, 4)
	assert.Len(t, train, 16)

	var testPos int
	for _, i := range test {
		if y[i] == 1 {
			testPos++
		}
	}
	assert.Equal(t, 1, testPos, "test partition preserves the class ratio")

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index appears twice")
		seen[i] = true
	}
	assert.Len(t, seen, n)
}

func TestTrainTestSplit_FallsBackWithoutStratification(t *testing.T) {
	// One class has a single member, so stratification is impossible.
	y := []float64{0, 0, 0, 1}
	train, test, err := TrainTestSplit(4, 0.25, 7, y)
	require.NoError(t, err)
	assert.Len(t, test, 1)
	assert.Len(t, train, 3)
}

func TestTrainTestSplit_Validation(t *testing.T) {
	_, _, err := TrainTestSplit(1, 0.2, 1, nil)
	assert.Error(t, err)
	_, _, err = TrainTestSplit(10, 0, 1, nil)
	assert.Error(t, err)
	_, _, err = TrainTestSplit(10, 1, 1, nil)
	assert.Error(t, err)
}
