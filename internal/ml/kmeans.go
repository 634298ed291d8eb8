package ml

import (
	"errors"
	"math"
	"math/rand"
)

// KMeans partitions rows into K clusters. Fit runs NInit seeded k-means++
// initializations and keeps the one with the lowest inertia.
type KMeans struct {
	K         int         `json:"k"`
	NInit     int         `json:"n_init"`
	MaxIter   int         `json:"max_iter"`
	Seed      int64       `json:"seed"`
	Centroids [][]float64 `json:"centroids"`
	Inertia   float64     `json:"inertia"`
}

// NewKMeans returns an untrained model.
func NewKMeans(k, nInit, maxIter int, seed int64) *KMeans {
	return &KMeans{K: k, NInit: nInit, MaxIter: maxIter, Seed: seed}
}

// Fit trains the model.
func (m *KMeans) Fit(X [][]float64) error {
	if err := checkMatrix(X); err != nil {
		return err
	}
	if m.K <= 0 {
		return errors.New("kmeans: K must be positive")
	}
	if len(X) < m.K {
		return errors.New("kmeans: fewer rows than clusters")
	}
	runs := m.NInit
	if runs < 1 {
		runs = 1
	}
	best := math.Inf(1)
	for r := 0; r < runs; r++ {
		rnd := rand.New(rand.NewSource(m.Seed + int64(r)))
		cents, inertia := m.lloyd(X, initCenters(X, m.K, rnd))
		if inertia < best {
			best = inertia
			m.Centroids = cents
		}
	}
	m.Inertia = best
	return nil
}

func (m *KMeans) lloyd(X [][]float64, cents [][]float64) ([][]float64, float64) {
	n, p := len(X), len(X[0])
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for it := 0; it < m.MaxIter; it++ {
		changed := false
		for i, x := range X {
			k := nearest(cents, x)
			if assign[i] != k {
				assign[i] = k
				changed = true
			}
		}
		if !changed {
			break
		}
		sums := make([][]float64, m.K)
		counts := make([]int, m.K)
		for k := range sums {
			sums[k] = make([]float64, p)
		}
		for i, x := range X {
			k := assign[i]
			counts[k]++
			for j, v := range x {
				sums[k][j] += v
			}
		}
		for k := range cents {
			if counts[k] == 0 {
				continue
			}
			for j := range cents[k] {
				cents[k][j] = sums[k][j] / float64(counts[k])
			}
		}
	}
	inertia := 0.0
	for _, x := range X {
		inertia += sqDist(x, cents[nearest(cents, x)])
	}
	return cents, inertia
}

func initCenters(X [][]float64, k int, rnd *rand.Rand) [][]float64 {
	n := len(X)
	cents := make([][]float64, 0, k)
	cents = append(cents, append([]float64(nil), X[rnd.Intn(n)]...))
	dist := make([]float64, n)
	for len(cents) < k {
		total := 0.0
		for i, x := range X {
			dist[i] = sqDist(x, cents[nearest(cents, x)])
			total += dist[i]
		}
		pick := 0
		if total == 0 {
			pick = rnd.Intn(n)
		} else {
			r := rnd.Float64() * total
			acc := 0.0
			for i, d := range dist {
				acc += d
				if acc >= r {
					pick = i
					break
				}
			}
		}
		cents = append(cents, append([]float64(nil), X[pick]...))
	}
	return cents
}

func nearest(cents [][]float64, x []float64) int {
	best, bestD := 0, math.Inf(1)
	for k, c := range cents {
		if d := sqDist(x, c); d < bestD {
			best, bestD = k, d
		}
	}
	return best
}

// Predict assigns each row to its nearest centroid.
func (m *KMeans) Predict(X [][]float64) ([]int, error) {
	if len(m.Centroids) == 0 {
		return nil, errors.New("kmeans: not trained")
	}
	out := make([]int, len(X))
	for i, x := range X {
		if len(x) != len(m.Centroids[0]) {
			return nil, errors.New("kmeans: feature count mismatch")
		}
		out[i] = nearest(m.Centroids, x)
	}
	return out, nil
}
