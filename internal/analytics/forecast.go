package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/ml"
)

const (
	forecastMinDays  = 7
	forecastMinRows  = 5
	forecastWindow   = 7
	forecastTrees    = 15
	forecastDepth    = 5
	modelSeed        = 42
	defaultPeriods   = 7
	defaultBaseline  = 100.0
	weekendUplift    = 1.3
	fallbackBand     = 0.3
	forecastBand     = 0.25
	forecastClampLow = 0.5
	forecastClampTop = 2.5
)

// ForecastPoint is one projected day.
type ForecastPoint struct {
	Date      string  `json:"date"`
	Predicted float64 `json:"predicted_revenue"`
	Lower     float64 `json:"confidence_lower"`
	Upper     float64 `json:"confidence_upper"`
	Interval  float64 `json:"confidence_interval"`
	// Baseline is the trailing-window mean the prediction was clamped against.
	Baseline float64 `json:"baseline,omitempty"`
}

// Forecaster projects daily revenue with a small regression forest over
// calendar and lag features.
type Forecaster struct {
	Periods int
	// Now dates the fallback forecast. Nil means time.Now.
	Now func() time.Time
}

type forecastFeatures struct {
	days   []time.Time
	totals []float64
	X      [][]float64
	y      []float64
}

func (f *Forecaster) Kind() string { return KindForecast }

func (f *Forecaster) Methods() Methods {
	return Methods{Trained: "lightweight_training", Cached: "cached_model", Fallback: "simple_average"}
}

func (f *Forecaster) periods() int {
	if f.Periods <= 0 {
		return defaultPeriods
	}
	return f.Periods
}

// DeriveFeatures aggregates revenue per day and builds one row per day after
// the third: weekday, weekend flag, month-start flag, previous day's total,
// mean of the three previous totals and month.
func (f *Forecaster) DeriveFeatures(ds *dataset.Dataset) (*forecastFeatures, error) {
	days := groupByDay(ds)
	if len(days) < forecastMinDays {
		return nil, &InsufficientError{Reason: ReasonInsufficientData}
	}
	ff := &forecastFeatures{}
	for _, d := range days {
		ff.days = append(ff.days, d.Date)
		ff.totals = append(ff.totals, d.total())
	}
	for i := 3; i < len(days); i++ {
		ff.X = append(ff.X, calendarRow(ff.days[i], ff.totals[i-1], ml.Mean(ff.totals[i-3:i])))
		ff.y = append(ff.y, ff.totals[i])
	}
	if len(ff.X) < forecastMinRows {
		return nil, &InsufficientError{Reason: ReasonInsufficientFeatures}
	}
	return ff, nil
}

func calendarRow(d time.Time, prev, mean3 float64) []float64 {
	wd := weekday(d)
	return []float64{
		float64(wd),
		boolf(wd >= 5),
		boolf(d.Day() <= 5),
		prev,
		mean3,
		float64(d.Month()),
	}
}

func (f *Forecaster) Train(ff *forecastFeatures) (*ml.ForestRegressor, *ml.Scaler, map[string]any, error) {
	scaler, err := ml.FitRobust(ff.X)
	if err != nil {
		return nil, nil, nil, err
	}
	Xs, err := scaler.Transform(ff.X)
	if err != nil {
		return nil, nil, nil, err
	}
	model := ml.NewForestRegressor(forecastTrees, forecastDepth, modelSeed)
	if err := model.Fit(Xs, ff.y); err != nil {
		return nil, nil, nil, err
	}
	info := map[string]any{
		"training_samples": len(ff.X),
		"features":         len(ff.X[0]),
		"date_range": fmt.Sprintf("%s to %s",
			ff.days[0].Format("2006-01-02"), ff.days[len(ff.days)-1].Format("2006-01-02")),
	}
	return model, scaler, info, nil
}

// Predict projects the configured number of days past the last observed one.
// Each prediction is clamped to [0.5, 2.5] times the mean of the trailing
// seven values and then joins that window.
func (f *Forecaster) Predict(ff *forecastFeatures, model *ml.ForestRegressor, scaler *ml.Scaler) ([]ForecastPoint, map[string]int, error) {
	if model == nil {
		return nil, nil, errors.New("forecast: nil model")
	}
	if err := requireScaler(scaler); err != nil {
		return nil, nil, err
	}
	window := ff.totals
	if len(window) > forecastWindow {
		window = window[len(window)-forecastWindow:]
	}
	window = append([]float64(nil), window...)
	last := ff.days[len(ff.days)-1]

	n := f.periods()
	out := make([]ForecastPoint, 0, n)
	for i := 0; i < n; i++ {
		d := last.AddDate(0, 0, i+1)
		tail := window
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}
		row, err := scaler.Transform([][]float64{calendarRow(d, window[len(window)-1], ml.Mean(tail))})
		if err != nil {
			return nil, nil, err
		}
		pred, err := model.Predict(row[0])
		if err != nil {
			return nil, nil, err
		}
		base := ml.Mean(window)
		pred = min(max(pred, base*forecastClampLow), base*forecastClampTop)
		out = append(out, point(d, pred, forecastBand, base))
		window = append(window[1:], pred)
	}
	return out, map[string]int{"periods": n, "observed_days": len(ff.days)}, nil
}

// Fallback projects the mean daily total, raised on weekends, dated from
// today.
func (f *Forecaster) Fallback(ds *dataset.Dataset) []ForecastPoint {
	base := defaultBaseline
	if days := groupByDay(ds); len(days) > 0 {
		sum := 0.0
		for _, d := range days {
			sum += d.total()
		}
		base = sum / float64(len(days))
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	today := dataset.Day(now())
	n := f.periods()
	out := make([]ForecastPoint, 0, n)
	for i := 0; i < n; i++ {
		d := today.AddDate(0, 0, i+1)
		pred := base
		if weekday(d) >= 5 {
			pred *= weekendUplift
		}
		out = append(out, point(d, pred, fallbackBand, 0))
	}
	return out
}

func point(d time.Time, pred, band, base float64) ForecastPoint {
	c := pred * band
	return ForecastPoint{
		Date:      d.Format("2006-01-02"),
		Predicted: pred,
		Lower:     pred - c,
		Upper:     pred + c,
		Interval:  c,
		Baseline:  base,
	}
}
