// Package ml holds the small, serializable models used by the analytics
// tasks. Every model is plain data with exported fields so it round-trips
// through encoding/json for the model cache.
package ml

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quantile interpolates linearly between the closest ranks of sorted.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Percentile returns the p-th percentile (0..100) of vals without modifying it.
func Percentile(vals []float64, p float64) float64 {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	return Quantile(cp, p/100)
}

// Median returns the median of vals without modifying it.
func Median(vals []float64) float64 {
	return Percentile(vals, 50)
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// SampleStd returns the n-1 standard deviation, or 0 when fewer than two
// values are given.
func SampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}

// PopStd returns the population standard deviation.
func PopStd(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	_, v := stat.PopMeanVariance(vals, nil)
	return math.Sqrt(v)
}

// Sum adds vals.
func Sum(vals []float64) float64 {
	return floats.Sum(vals)
}

func column(X [][]float64, j int) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = row[j]
	}
	return out
}

func sqDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		x := a[i] - b[i]
		d += x * x
	}
	return d
}
