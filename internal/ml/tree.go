package ml

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a flattened tree. Children are indices into the
// owning tree's Nodes slice.
type TreeNode struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// RegressionTree is a CART regression tree split on squared error.
type RegressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
}

func (t *RegressionTree) fit(X [][]float64, y []float64, idx []int, p treeParams, rnd *rand.Rand) {
	t.Nodes = t.Nodes[:0]
	t.grow(X, y, idx, 0, p, rnd)
}

func (t *RegressionTree) grow(X [][]float64, y []float64, idx []int, depth int, p treeParams, rnd *rand.Rand) int {
	at := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{})

	mean := 0.0
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))

	if (p.maxDepth > 0 && depth >= p.maxDepth) || len(idx) < p.minSamplesSplit {
		t.Nodes[at] = TreeNode{Leaf: true, Value: mean}
		return at
	}
	feat, thr, ok := bestSplit(X, y, idx, p.maxFeatures, rnd)
	if !ok {
		t.Nodes[at] = TreeNode{Leaf: true, Value: mean}
		return at
	}
	var left, right []int
	for _, i := range idx {
		if X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := t.grow(X, y, left, depth+1, p, rnd)
	r := t.grow(X, y, right, depth+1, p, rnd)
	t.Nodes[at] = TreeNode{Feature: feat, Threshold: thr, Left: l, Right: r, Value: mean}
	return at
}

// bestSplit scans every candidate threshold of the considered features and
// returns the one with the lowest summed squared error.
func bestSplit(X [][]float64, y []float64, idx []int, maxFeatures int, rnd *rand.Rand) (int, float64, bool) {
	p := len(X[idx[0]])
	features := rnd.Perm(p)
	if maxFeatures > 0 && maxFeatures < p {
		features = features[:maxFeatures]
	}

	total, totalSq := 0.0, 0.0
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	n := float64(len(idx))
	best := totalSq - total*total/n
	bestFeat, bestThr, found := 0, 0.0, false

	order := append([]int(nil), idx...)
	for _, f := range features {
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })
		ls, lsq := 0.0, 0.0
		for k := 0; k < len(order)-1; k++ {
			v := y[order[k]]
			ls += v
			lsq += v * v
			cur, next := X[order[k]][f], X[order[k+1]][f]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			rs, rsq := total-ls, totalSq-lsq
			sse := (lsq - ls*ls/nl) + (rsq - rs*rs/nr)
			if sse < best-1e-12 {
				best, bestFeat, bestThr, found = sse, f, (cur+next)/2, true
			}
		}
	}
	return bestFeat, bestThr, found
}

// Predict walks the tree for one sample.
func (t *RegressionTree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	n := t.Nodes[0]
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n.Value
}
