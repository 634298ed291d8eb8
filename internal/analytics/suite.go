package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/ml"
)

// Forecast runs the forecaster.
func (r *Runner) Forecast(ctx context.Context, ds *dataset.Dataset, f *Forecaster) ([]ForecastPoint, Meta) {
	return run[*forecastFeatures, *ml.ForestRegressor, ForecastPoint](ctx, r, f, ds)
}

// DetectAnomalies runs the anomaly detector.
func (r *Runner) DetectAnomalies(ctx context.Context, ds *dataset.Dataset) ([]Anomaly, Meta) {
	return run[*dailyStats, *ml.IsolationForest, Anomaly](ctx, r, &AnomalyDetector{}, ds)
}

// Segment runs the customer segmenter.
func (r *Runner) Segment(ctx context.Context, ds *dataset.Dataset) ([]Segment, Meta) {
	return run[*customerFeatures, *ml.KMeans, Segment](ctx, r, &Segmenter{}, ds)
}

// Results gathers the output of one analysis run. Tasks that were not
// requested are left nil.
type Results struct {
	RunID        uuid.UUID       `json:"run_id"`
	Forecast     []ForecastPoint `json:"forecast,omitempty"`
	ForecastMeta *Meta           `json:"forecast_meta,omitempty"`
	Anomalies    []Anomaly       `json:"anomalies,omitempty"`
	AnomalyMeta  *Meta           `json:"anomaly_meta,omitempty"`
	Segments     []Segment       `json:"segments,omitempty"`
	SegmentMeta  *Meta           `json:"segment_meta,omitempty"`
}

// ParseKinds validates a comma-separated task list. Empty selects all tasks.
func ParseKinds(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{KindForecast, KindAnomaly, KindSegment}, nil
	}
	var out []string
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		switch k {
		case KindForecast, KindAnomaly, KindSegment:
			out = append(out, k)
		case "forecast":
			out = append(out, KindForecast)
		case "segment", "segments":
			out = append(out, KindSegment)
		case "anomalies":
			out = append(out, KindAnomaly)
		default:
			return nil, fmt.Errorf("unknown task %q (use revenue, anomaly or customer)", k)
		}
	}
	return out, nil
}

// RunAll runs the selected tasks in order.
func (r *Runner) RunAll(ctx context.Context, ds *dataset.Dataset, kinds []string, f *Forecaster) *Results {
	res := &Results{RunID: uuid.New()}
	log := r.logger.With(zap.String("run_id", res.RunID.String()))
	for _, k := range kinds {
		switch k {
		case KindForecast:
			out, m := r.Forecast(ctx, ds, f)
			res.Forecast, res.ForecastMeta = out, &m
		case KindAnomaly:
			out, m := r.DetectAnomalies(ctx, ds)
			res.Anomalies, res.AnomalyMeta = out, &m
		case KindSegment:
			out, m := r.Segment(ctx, ds)
			res.Segments, res.SegmentMeta = out, &m
		}
		log.Debug("task finished", zap.String("task", k))
	}
	return res
}
