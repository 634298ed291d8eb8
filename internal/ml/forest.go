package ml

import (
	"errors"
	"math/rand"
	"sync"
)

// ForestRegressor averages bootstrapped regression trees.
type ForestRegressor struct {
	NEstimators     int              `json:"n_estimators"`
	MaxDepth        int              `json:"max_depth"`
	MinSamplesSplit int              `json:"min_samples_split"`
	MaxFeatures     int              `json:"max_features"`
	Seed            int64            `json:"seed"`
	Trees           []RegressionTree `json:"trees"`
}

// NewForestRegressor returns an untrained forest.
func NewForestRegressor(nEstimators, maxDepth int, seed int64) *ForestRegressor {
	return &ForestRegressor{
		NEstimators:     nEstimators,
		MaxDepth:        maxDepth,
		MinSamplesSplit: 2,
		Seed:            seed,
	}
}

// Fit trains every tree on its own bootstrap sample. Trees are grown
// concurrently; each draws from a source seeded with Seed plus its index, so
// results do not depend on scheduling.
func (f *ForestRegressor) Fit(X [][]float64, y []float64) error {
	if err := checkMatrix(X); err != nil {
		return err
	}
	if len(y) != len(X) {
		return errors.New("forest: X and y length mismatch")
	}
	if f.NEstimators <= 0 {
		return errors.New("forest: no estimators")
	}
	n := len(X)
	params := treeParams{maxDepth: f.MaxDepth, minSamplesSplit: f.MinSamplesSplit, maxFeatures: f.MaxFeatures}
	f.Trees = make([]RegressionTree, f.NEstimators)

	var wg sync.WaitGroup
	for i := 0; i < f.NEstimators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(f.Seed + int64(i)))
			sample := make([]int, n)
			for j := range sample {
				sample[j] = rnd.Intn(n)
			}
			f.Trees[i].fit(X, y, sample, params, rnd)
		}(i)
	}
	wg.Wait()
	return nil
}

// Predict averages the trees' predictions for one sample.
func (f *ForestRegressor) Predict(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, errors.New("forest: not trained")
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}
