package ml

import (
	"encoding/json"
	"math"
	"testing"
)

func TestQuantileInterpolates(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	if got := Quantile(s, 0.5); got != 2.5 {
		t.Fatalf("median = %v", got)
	}
	if got := Percentile([]float64{4, 1, 3, 2}, 25); got != 1.75 {
		t.Fatalf("p25 = %v", got)
	}
	if SampleStd([]float64{5}) != 0 {
		t.Fatal("single value std should be 0")
	}
}

func TestScalers(t *testing.T) {
	X := [][]float64{{1, 10}, {2, 10}, {3, 10}, {4, 10}, {5, 10}}
	rs, err := FitRobust(X)
	if err != nil {
		t.Fatalf("robust: %v", err)
	}
	if rs.Center[0] != 3 || rs.Scale[0] != 2 {
		t.Fatalf("robust = %+v", rs)
	}
	if rs.Scale[1] != 1 {
		t.Fatalf("constant column scale = %v, want 1", rs.Scale[1])
	}
	out, err := rs.Transform([][]float64{{5, 10}})
	if err != nil || out[0][0] != 1 || out[0][1] != 0 {
		t.Fatalf("transform = %v, %v", out, err)
	}
	ss, err := FitStandard(X)
	if err != nil {
		t.Fatalf("standard: %v", err)
	}
	if math.Abs(ss.Scale[0]-math.Sqrt(2)) > 1e-9 {
		t.Fatalf("std scale = %v", ss.Scale[0])
	}
	if _, err := ss.Transform([][]float64{{1}}); err == nil {
		t.Fatal("expected width mismatch error")
	}
}

func TestForestLearnsStep(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		X = append(X, []float64{float64(i)})
		if i < 20 {
			y = append(y, 10)
		} else {
			y = append(y, 100)
		}
	}
	f := NewForestRegressor(15, 5, 42)
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	lo, _ := f.Predict([]float64{2})
	hi, _ := f.Predict([]float64{38})
	if lo > 30 || hi < 80 {
		t.Fatalf("predictions lo=%v hi=%v", lo, hi)
	}

	// serialized model predicts identically
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var g ForestRegressor
	if err := json.Unmarshal(b, &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p, _ := g.Predict([]float64{38}); p != hi {
		t.Fatalf("decoded prediction %v != %v", p, hi)
	}

	again := NewForestRegressor(15, 5, 42)
	_ = again.Fit(X, y)
	if p, _ := again.Predict([]float64{2}); p != lo {
		t.Fatalf("same seed gave %v, want %v", p, lo)
	}
}

func TestIsolationForestFlagsOutlier(t *testing.T) {
	var X [][]float64
	for i := 0; i < 30; i++ {
		X = append(X, []float64{float64(i%5) * 0.1, float64(i%3) * 0.1})
	}
	X = append(X, []float64{25, -25})
	f := NewIsolationForest(30, 0.15, 42)
	if err := f.Fit(X); err != nil {
		t.Fatalf("fit: %v", err)
	}
	d, err := f.Decision(X)
	if err != nil {
		t.Fatalf("decision: %v", err)
	}
	last := d[len(d)-1]
	for i, v := range d[:len(d)-1] {
		if v < last {
			t.Fatalf("row %d (%v) scored lower than the outlier (%v)", i, v, last)
		}
	}
	if Labels(d)[len(d)-1] != -1 {
		t.Fatal("outlier not labelled -1")
	}
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	X := [][]float64{{0, 0}, {0.1, 0}, {0, 0.1}, {10, 10}, {10.1, 10}, {10, 10.1}}
	m := NewKMeans(2, 3, 50, 42)
	if err := m.Fit(X); err != nil {
		t.Fatalf("fit: %v", err)
	}
	labels, err := m.Predict(X)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if labels[0] != labels[1] || labels[0] != labels[2] || labels[3] != labels[4] || labels[0] == labels[3] {
		t.Fatalf("labels = %v", labels)
	}
	if err := NewKMeans(10, 1, 10, 1).Fit(X); err == nil {
		t.Fatal("expected error when K exceeds rows")
	}
}
