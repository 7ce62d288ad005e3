package models

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Accuracy is the fraction of 0/1 predictions matching the targets.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	var correct float64
	for i := range yTrue {
		if (yTrue[i] > 0.5) == (yPred[i] > 0.5) {
			correct++
		}
	}
	return correct / float64(len(yTrue))
}

// Precision is TP / (TP + FP) for 0/1 predictions. Zero when nothing was
// predicted positive.
func Precision(yTrue, yPred []float64) float64 {
	var tp, fp float64
	for i := range yTrue {
		if yPred[i] > 0.5 {
			if yTrue[i] > 0.5 {
				tp++
			} else {
				fp++
			}
		}
	}
	if tp+fp == 0 {
		return 0
	}
	return tp / (tp + fp)
}

// Recall is TP / (TP + FN) for 0/1 predictions. Zero when there are no
// positive targets.
func Recall(yTrue, yPred []float64) float64 {
	var tp, fn float64
	for i := range yTrue {
		if yTrue[i] > 0.5 {
			if yPred[i] > 0.5 {
				tp++
			} else {
				fn++
			}
		}
	}
	if tp+fn == 0 {
		return 0
	}
	return tp / (tp + fn)
}

// ROCAUC computes the area under the ROC curve from scores and 0/1 targets.
// It errors when the targets contain a single class, so callers can fall
// back to accuracy-based selection.
func ROCAUC(yTrue, scores []float64) (float64, error) {
	if len(yTrue) == 0 || len(yTrue) != len(scores) {
		return 0, fmt.Errorf("roc auc requires matching non-empty targets and scores, got %d and %d", len(yTrue), len(scores))
	}

	var positives int
	for _, v := range yTrue {
		if v > 0.5 {
			positives++
		}
	}
	if positives == 0 || positives == len(yTrue) {
		return 0, fmt.Errorf("roc auc undefined for single-class targets")
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	sorted := make([]float64, len(scores))
	classes := make([]bool, len(scores))
	for k, i := range idx {
		sorted[k] = scores[i]
		classes[k] = yTrue[i] > 0.5
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}
	var sum float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(yTrue)))
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue))
}

// R2 is the coefficient of determination.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

// TrainTestSplit shuffles row indices into train and test partitions.
// When stratify labels are given and every class has at least two members,
// the split preserves class proportions; otherwise it falls back to a plain
// shuffle.
func TrainTestSplit(n int, testSize float64, seed int64, stratify []float64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("split requires at least 2 rows, got %d", n)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %g", testSize)
	}
	nTest := int(math.Round(float64(n) * testSize))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}

	rng := rand.New(rand.NewSource(seed))

	if len(stratify) == n && stratifiable(stratify) {
		byClass := map[float64][]int{}
		var order []float64
		for i, label := range stratify {
			if _, ok := byClass[label]; !ok {
				order = append(order, label)
			}
			byClass[label] = append(byClass[label], i)
		}
		sort.Float64s(order)

		for _, label := range order {
			members := byClass[label]
			rng.Shuffle(len(members), func(a, b int) { members[a], members[b] = members[b], members[a] })
			k := int(math.Round(float64(len(members)) * testSize))
			if k < 1 {
				k = 1
			}
			if k >= len(members) {
				k = len(members) - 1
			}
			test = append(test, members[:k]...)
			train = append(train, members[k:]...)
		}
		sort.Ints(train)
		sort.Ints(test)
		return train, test, nil
	}

	perm := rng.Perm(n)
	test = append(test, perm[:nTest]...)
	train = append(train, perm[nTest:]...)
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// stratifiable reports whether every class has at least two members.
func stratifiable(labels []float64) bool {
	counts := map[float64]int{}
	for _, v := range labels {
		counts[v]++
	}
	if len(counts) < 2 {
		return false
	}
	for _, c := range counts {
		if c < 2 {
			return false
		}
	}
	return true
}
