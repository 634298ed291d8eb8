package ml

import (
	"errors"
	"fmt"
)

// Scaling methods.
const (
	ScaleRobust   = "robust"
	ScaleStandard = "standard"
)

// Scaler centers and rescales feature columns. Columns with zero spread are
// only centered.
type Scaler struct {
	Method string    `json:"method"`
	Center []float64 `json:"center"`
	Scale  []float64 `json:"scale"`
}

// FitRobust centers on the median and scales by the interquartile range.
func FitRobust(X [][]float64) (*Scaler, error) {
	if err := checkMatrix(X); err != nil {
		return nil, err
	}
	p := len(X[0])
	s := &Scaler{Method: ScaleRobust, Center: make([]float64, p), Scale: make([]float64, p)}
	for j := 0; j < p; j++ {
		col := column(X, j)
		s.Center[j] = Median(col)
		s.Scale[j] = nonZero(Percentile(col, 75) - Percentile(col, 25))
	}
	return s, nil
}

// FitStandard centers on the mean and scales by the population standard
// deviation.
func FitStandard(X [][]float64) (*Scaler, error) {
	if err := checkMatrix(X); err != nil {
		return nil, err
	}
	p := len(X[0])
	s := &Scaler{Method: ScaleStandard, Center: make([]float64, p), Scale: make([]float64, p)}
	for j := 0; j < p; j++ {
		col := column(X, j)
		s.Center[j] = Mean(col)
		s.Scale[j] = nonZero(PopStd(col))
	}
	return s, nil
}

// Transform returns a scaled copy of X.
func (s *Scaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Center) {
			return nil, fmt.Errorf("scaler: row %d has %d features, fitted on %d", i, len(row), len(s.Center))
		}
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Center[j]) / s.Scale[j]
		}
		out[i] = r
	}
	return out, nil
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func checkMatrix(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.New("ml: empty feature matrix")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return fmt.Errorf("ml: row %d has %d features, want %d", i, len(X[i]), p)
		}
	}
	return nil
}
