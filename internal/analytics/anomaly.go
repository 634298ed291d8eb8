package analytics

import (
	"errors"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/ml"
)

const (
	anomalyMinDays       = 5
	anomalyTrees         = 30
	anomalyContamination = 0.15
	anomalyPercentile    = 20
	spikeFactor          = 2.0
	dropFactor           = 0.5
	highSeverityFactor   = 0.7
)

// Anomaly types and severities.
const (
	AnomalySpike   = "revenue_spike"
	AnomalyDrop    = "revenue_drop"
	AnomalyUnusual = "unusual_pattern"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Anomaly is one flagged day.
type Anomaly struct {
	Date          string  `json:"date"`
	Type          string  `json:"anomaly_type"`
	Score         float64 `json:"anomaly_score"`
	Revenue       float64 `json:"revenue"`
	Orders        int     `json:"orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
	Severity      string  `json:"severity"`
}

// AnomalyDetector flags unusual days with an isolation forest over daily
// revenue statistics.
type AnomalyDetector struct{}

type dailyStats struct {
	days []day
	X    [][]float64
}

func (a *AnomalyDetector) Kind() string { return KindAnomaly }

func (a *AnomalyDetector) Methods() Methods {
	return Methods{Trained: "lightweight_isolation_forest", Cached: "cached_isolation_forest", Fallback: "skipped"}
}

// DeriveFeatures builds one row per day: revenue sum, mean order value,
// sample standard deviation (0 when undefined) and order count.
func (a *AnomalyDetector) DeriveFeatures(ds *dataset.Dataset) (*dailyStats, error) {
	days := groupByDay(ds)
	if len(days) < anomalyMinDays {
		return nil, &InsufficientError{Reason: ReasonInsufficientData}
	}
	st := &dailyStats{days: days}
	for _, d := range days {
		st.X = append(st.X, []float64{d.total(), ml.Mean(d.Amounts), ml.SampleStd(d.Amounts), float64(len(d.Amounts))})
	}
	return st, nil
}

func (a *AnomalyDetector) Train(st *dailyStats) (*ml.IsolationForest, *ml.Scaler, map[string]any, error) {
	scaler, err := ml.FitStandard(st.X)
	if err != nil {
		return nil, nil, nil, err
	}
	Xs, err := scaler.Transform(st.X)
	if err != nil {
		return nil, nil, nil, err
	}
	model := ml.NewIsolationForest(anomalyTrees, anomalyContamination, modelSeed)
	if err := model.Fit(Xs); err != nil {
		return nil, nil, nil, err
	}
	return model, scaler, map[string]any{"samples": len(st.X), "features": len(st.X[0])}, nil
}

// Predict flags days whose decision score falls below the 20th percentile of
// all scores or that the forest labels as outliers.
func (a *AnomalyDetector) Predict(st *dailyStats, model *ml.IsolationForest, scaler *ml.Scaler) ([]Anomaly, map[string]int, error) {
	if model == nil {
		return nil, nil, errors.New("anomaly: nil model")
	}
	if err := requireScaler(scaler); err != nil {
		return nil, nil, err
	}
	Xs, err := scaler.Transform(st.X)
	if err != nil {
		return nil, nil, err
	}
	scores, err := model.Decision(Xs)
	if err != nil {
		return nil, nil, err
	}
	labels := ml.Labels(scores)
	threshold := ml.Percentile(scores, anomalyPercentile)
	revenues := make([]float64, len(st.days))
	for i, row := range st.X {
		revenues[i] = row[0]
	}
	median := ml.Median(revenues)

	out := []Anomaly{}
	for i, score := range scores {
		if labels[i] != -1 && score >= threshold {
			continue
		}
		row := st.X[i]
		kind := AnomalyUnusual
		switch {
		case row[0] > median*spikeFactor:
			kind = AnomalySpike
		case row[0] < median*dropFactor:
			kind = AnomalyDrop
		}
		sev := SeverityMedium
		if score < threshold*highSeverityFactor {
			sev = SeverityHigh
		}
		out = append(out, Anomaly{
			Date:          st.days[i].Date.Format("2006-01-02"),
			Type:          kind,
			Score:         score,
			Revenue:       row[0],
			Orders:        int(row[3]),
			AvgOrderValue: row[1],
			Severity:      sev,
		})
	}
	return out, map[string]int{"anomalies_detected": len(out), "days": len(st.days)}, nil
}

// Fallback reports no anomalies.
func (a *AnomalyDetector) Fallback(*dataset.Dataset) []Anomaly { return []Anomaly{} }
