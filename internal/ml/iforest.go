package ml

import (
	"errors"
	"math"
	"math/rand"
)

const eulerGamma = 0.5772156649

// IsoNode is one node of an isolation tree.
type IsoNode struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Size      int     `json:"n,omitempty"`
}

// IsoTree is a flattened isolation tree.
type IsoTree struct {
	Nodes []IsoNode `json:"nodes"`
}

// IsolationForest scores samples by how quickly random axis-aligned splits
// isolate them. Decision values below zero mark the contamination share of
// the training set as outliers.
type IsolationForest struct {
	NEstimators   int       `json:"n_estimators"`
	MaxSamples    int       `json:"max_samples"`
	Contamination float64   `json:"contamination"`
	Seed          int64     `json:"seed"`
	SampleSize    int       `json:"sample_size"`
	Offset        float64   `json:"offset"`
	Trees         []IsoTree `json:"trees"`
}

// NewIsolationForest returns an untrained forest using at most 256 samples
// per tree.
func NewIsolationForest(nEstimators int, contamination float64, seed int64) *IsolationForest {
	return &IsolationForest{NEstimators: nEstimators, MaxSamples: 256, Contamination: contamination, Seed: seed}
}

// Fit grows the trees and calibrates the decision offset on X.
func (f *IsolationForest) Fit(X [][]float64) error {
	if err := checkMatrix(X); err != nil {
		return err
	}
	if f.NEstimators <= 0 {
		return errors.New("iforest: no estimators")
	}
	n := len(X)
	psi := n
	if f.MaxSamples > 0 && psi > f.MaxSamples {
		psi = f.MaxSamples
	}
	f.SampleSize = psi
	limit := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))
	rnd := rand.New(rand.NewSource(f.Seed))

	f.Trees = make([]IsoTree, f.NEstimators)
	for i := range f.Trees {
		sample := rnd.Perm(n)[:psi]
		f.Trees[i].grow(X, sample, 0, limit, rnd)
	}
	scores := f.ScoreSamples(X)
	f.Offset = Percentile(scores, 100*f.Contamination)
	return nil
}

func (t *IsoTree) grow(X [][]float64, idx []int, depth, limit int, rnd *rand.Rand) int {
	at := len(t.Nodes)
	t.Nodes = append(t.Nodes, IsoNode{Leaf: true, Size: len(idx)})
	if depth >= limit || len(idx) <= 1 {
		return at
	}
	p := len(X[idx[0]])
	var candidates []int
	for j := 0; j < p; j++ {
		lo, hi := spread(X, idx, j)
		if hi > lo {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return at
	}
	feat := candidates[rnd.Intn(len(candidates))]
	lo, hi := spread(X, idx, feat)
	thr := lo + rnd.Float64()*(hi-lo)
	var left, right []int
	for _, i := range idx {
		if X[i][feat] < thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := t.grow(X, left, depth+1, limit, rnd)
	r := t.grow(X, right, depth+1, limit, rnd)
	t.Nodes[at] = IsoNode{Feature: feat, Threshold: thr, Left: l, Right: r, Size: len(idx)}
	return at
}

func spread(X [][]float64, idx []int, j int) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		v := X[i][j]
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func (t *IsoTree) pathLength(x []float64) float64 {
	depth := 0.0
	n := t.Nodes[0]
	for !n.Leaf {
		if x[n.Feature] < n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
		depth++
	}
	return depth + avgPathLength(n.Size)
}

// avgPathLength is the expected path length of an unsuccessful search in a
// binary search tree of n nodes.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// ScoreSamples returns the negated anomaly score of each row; lower is more
// anomalous.
func (f *IsolationForest) ScoreSamples(X [][]float64) []float64 {
	c := avgPathLength(f.SampleSize)
	out := make([]float64, len(X))
	for i, x := range X {
		h := 0.0
		for t := range f.Trees {
			h += f.Trees[t].pathLength(x)
		}
		h /= float64(len(f.Trees))
		if c == 0 {
			out[i] = -0.5
			continue
		}
		out[i] = -math.Pow(2, -h/c)
	}
	return out
}

// Decision shifts the scores by the fitted offset. Negative values are
// outliers.
func (f *IsolationForest) Decision(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New("iforest: not trained")
	}
	scores := f.ScoreSamples(X)
	for i := range scores {
		scores[i] -= f.Offset
	}
	return scores, nil
}

// Labels maps decision values to 1 (inlier) or -1 (outlier).
func Labels(decision []float64) []int {
	out := make([]int, len(decision))
	for i, d := range decision {
		out[i] = 1
		if d < 0 {
			out[i] = -1
		}
	}
	return out
}
