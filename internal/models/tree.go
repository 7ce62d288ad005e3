package models

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a CART tree. Leaves carry the mean target of the
// training rows that reached them, which doubles as the positive-class
// probability for 0/1 targets.
type TreeNode struct {
	Feature   int       `msgpack:"feature"`
	Threshold float64   `msgpack:"threshold"`
	Left      *TreeNode `msgpack:"left,omitempty"`
	Right     *TreeNode `msgpack:"right,omitempty"`
	Leaf      bool      `msgpack:"leaf"`
	Value     float64   `msgpack:"value"`
}

// DecisionTree is a CART tree grown by variance reduction, which for 0/1
// targets is proportional to the Gini criterion, so one builder serves both
// classification and regression.
type DecisionTree struct {
	Root        *TreeNode `msgpack:"root"`
	NFeatures   int       `msgpack:"n_features"`
	Importances []float64 `msgpack:"importances"`
}

// TreeConfig controls tree growth.
type TreeConfig struct {
	MaxDepth       int // 0 picks the default
	MinSamplesLeaf int // 0 picks the default
	MTry           int // features considered per split; 0 means all
	Seed           int64
}

type treeBuilder struct {
	x           [][]float64
	y           []float64
	maxDepth    int
	minLeaf     int
	mtry        int
	rng         *rand.Rand
	nTotal      float64
	importances []float64
}

// FitDecisionTree grows a CART tree on a feature matrix and targets.
func FitDecisionTree(x [][]float64, y []float64, cfg TreeConfig) (*DecisionTree, error) {
	if len(x) == 0 || len(y) != len(x) {
		return nil, fmt.Errorf("tree fit requires matching non-empty X and y, got %d rows and %d targets", len(x), len(y))
	}
	p := len(x[0])

	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 16
	}
	minLeaf := cfg.MinSamplesLeaf
	if minLeaf <= 0 {
		minLeaf = 1
	}
	mtry := cfg.MTry
	if mtry <= 0 || mtry > p {
		mtry = p
	}

	b := &treeBuilder{
		x:           x,
		y:           y,
		maxDepth:    maxDepth,
		minLeaf:     minLeaf,
		mtry:        mtry,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		nTotal:      float64(len(x)),
		importances: make([]float64, p),
	}

	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	root := b.grow(idx, 0)

	total := 0.0
	for _, v := range b.importances {
		total += v
	}
	if total > 0 {
		for i := range b.importances {
			b.importances[i] /= total
		}
	}
	return &DecisionTree{Root: root, NFeatures: p, Importances: b.importances}, nil
}

func (b *treeBuilder) grow(idx []int, depth int) *TreeNode {
	mean, variance := meanVariance(b.y, idx)
	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf || variance == 0 {
		return &TreeNode{Leaf: true, Value: mean}
	}

	feature, threshold, decrease, ok := b.bestSplit(idx, variance)
	if !ok {
		return &TreeNode{Leaf: true, Value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return &TreeNode{Leaf: true, Value: mean}
	}

	b.importances[feature] += decrease * float64(len(idx)) / b.nTotal

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
	}
}

// bestSplit scans candidate features for the threshold with the largest
// weighted variance decrease.
func (b *treeBuilder) bestSplit(idx []int, parentVariance float64) (feature int, threshold, decrease float64, ok bool) {
	p := len(b.x[0])
	candidates := b.sampleFeatures(p)

	n := float64(len(idx))
	bestDecrease := 0.0

	sorted := make([]int, len(idx))
	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		var sumLeft, sumSqLeft float64
		sumRight, sumSqRight := 0.0, 0.0
		for _, i := range sorted {
			sumRight += b.y[i]
			sumSqRight += b.y[i] * b.y[i]
		}

		for k := 0; k < len(sorted)-1; k++ {
			v := b.y[sorted[k]]
			sumLeft += v
			sumSqLeft += v * v
			sumRight -= v
			sumSqRight -= v * v

			cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}

			nLeft := float64(k + 1)
			nRight := n - nLeft
			varLeft := sumSqLeft/nLeft - (sumLeft/nLeft)*(sumLeft/nLeft)
			varRight := sumSqRight/nRight - (sumRight/nRight)*(sumRight/nRight)
			weighted := (nLeft*varLeft + nRight*varRight) / n
			d := parentVariance - weighted
			if d > bestDecrease {
				bestDecrease = d
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	return feature, threshold, bestDecrease, ok
}

func (b *treeBuilder) sampleFeatures(p int) []int {
	if b.mtry >= p {
		all := make([]int, p)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := b.rng.Perm(p)
	return perm[:b.mtry]
}

// PredictValue walks the tree for one feature vector.
func (t *DecisionTree) PredictValue(x []float64) (float64, error) {
	if len(x) != t.NFeatures {
		return 0, fmt.Errorf("tree expects %d features, got %d", t.NFeatures, len(x))
	}
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value, nil
}

func meanVariance(y []float64, idx []int) (mean, variance float64) {
	n := float64(len(idx))
	if n == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	mean = sum / n
	variance = sumSq/n - mean*mean
	if variance < 0 || math.IsNaN(variance) {
		variance = 0
	}
	return mean, variance
}
