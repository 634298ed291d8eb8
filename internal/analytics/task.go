// Package analytics runs the forecasting, anomaly and segmentation tasks over
// a normalized dataset, reusing cached models when the dataset signature has
// been seen before.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/ledgerloom/internal/cache"
	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/ml"
	"github.com/KaramelBytes/ledgerloom/internal/signature"
)

// Task kinds, also used as cache key prefixes.
const (
	KindForecast = "revenue"
	KindAnomaly  = "anomaly"
	KindSegment  = "customer"
)

// Reason codes reported when a task falls back.
const (
	ReasonInsufficientData      = "insufficient_data"
	ReasonInsufficientFeatures  = "insufficient_features"
	ReasonInsufficientCustomers = "insufficient_customers"
)

// InsufficientError reports that a dataset is too small for a task. Runners
// fall back without treating it as a failure.
type InsufficientError struct {
	Reason string
}

func (e *InsufficientError) Error() string { return "not enough data: " + e.Reason }

// Methods names the result paths of a task for Meta.Method.
type Methods struct {
	Trained  string
	Cached   string
	Fallback string
}

// Task is one analytics variant. F is its feature set, M its model state and
// R its result row. M must round-trip through encoding/json.
type Task[F, M, R any] interface {
	Kind() string
	Methods() Methods
	DeriveFeatures(ds *dataset.Dataset) (F, error)
	Train(f F) (M, *ml.Scaler, map[string]any, error)
	Predict(f F, model M, scaler *ml.Scaler) ([]R, map[string]int, error)
	Fallback(ds *dataset.Dataset) []R
}

// Meta describes how a task result was produced.
type Meta struct {
	Method         string         `json:"method"`
	Reason         string         `json:"reason,omitempty"`
	Error          string         `json:"error,omitempty"`
	CacheHit       bool           `json:"cache_hit"`
	ModelCached    bool           `json:"model_cached"`
	ElapsedSeconds float64        `json:"processing_time_seconds"`
	Counters       map[string]int `json:"counters,omitempty"`
	Signature      string         `json:"signature,omitempty"`
}

// Runner carries the shared collaborators of every task run.
type Runner struct {
	cache  *cache.ModelCache
	logger *zap.Logger
	now    func() time.Time
}

// NewRunner returns a Runner. A nil cache disables reuse and storage.
func NewRunner(c *cache.ModelCache, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cache: c, logger: logger.Named("analytics"), now: time.Now}
}

// run executes task over ds: derive features, reuse a cached model for the
// dataset signature when one decodes, otherwise train and store. Errors and
// panics in any step degrade to the task's fallback, so run never fails.
func run[F, M, R any](ctx context.Context, r *Runner, task Task[F, M, R], ds *dataset.Dataset) ([]R, Meta) {
	start := r.now()
	methods := task.Methods()
	log := r.logger.With(zap.String("task", task.Kind()))
	meta := Meta{}
	finish := func(res []R) ([]R, Meta) {
		meta.ElapsedSeconds = r.now().Sub(start).Seconds()
		return res, meta
	}
	fallback := func(err error) ([]R, Meta) {
		meta.Method = methods.Fallback
		meta.CacheHit = false
		meta.Counters = nil
		var ie *InsufficientError
		if errors.As(err, &ie) {
			meta.Reason = ie.Reason
		} else if err != nil {
			meta.Error = err.Error()
			log.Warn("task failed, using fallback", zap.Error(err))
		}
		res, ferr := guard(func() ([]R, error) { return task.Fallback(ds), nil })
		if ferr != nil {
			log.Error("fallback failed", zap.Error(ferr))
			res = nil
		}
		return finish(res)
	}

	sig, err := guard(func() (signature.Signature, error) { return signature.Compute(ds), nil })
	if err != nil {
		return fallback(err)
	}
	meta.Signature = string(sig)

	feats, err := guard(func() (F, error) { return task.DeriveFeatures(ds) })
	if err != nil {
		return fallback(err)
	}

	if r.cache != nil {
		if entry, ok := r.cache.Lookup(ctx, string(sig), task.Kind()); ok {
			res, counters, err := applyCached(task, feats, entry)
			if err == nil {
				meta.Method = methods.Cached
				meta.CacheHit = true
				meta.Counters = counters
				log.Debug("reused cached model", zap.String("signature", string(sig)))
				return finish(res)
			}
			log.Warn("cached model unusable, retraining", zap.Error(err))
			r.cache.Drop(ctx, string(sig), task.Kind())
		}
	}

	type trained struct {
		model  M
		scaler *ml.Scaler
		info   map[string]any
	}
	t, err := guard(func() (trained, error) {
		m, s, info, err := task.Train(feats)
		return trained{m, s, info}, err
	})
	if err != nil {
		return fallback(err)
	}
	res, err := guard(func() ([]R, error) {
		out, counters, err := task.Predict(feats, t.model, t.scaler)
		meta.Counters = counters
		return out, err
	})
	if err != nil {
		return fallback(err)
	}
	meta.Counters = mergeCounters(meta.Counters, t.info)

	if r.cache != nil {
		if _, err := r.cache.Store(ctx, string(sig), task.Kind(), t.model, t.scaler, t.info); err != nil {
			log.Warn("could not cache model", zap.Error(err))
		} else {
			meta.ModelCached = true
		}
	}
	meta.Method = methods.Trained
	return finish(res)
}

func applyCached[F, M, R any](task Task[F, M, R], feats F, entry *cache.Entry) ([]R, map[string]int, error) {
	var model M
	if err := entry.DecodeModel(&model); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}
	var scaler *ml.Scaler
	var s ml.Scaler
	ok, err := entry.DecodeScaler(&s)
	if err != nil {
		return nil, nil, fmt.Errorf("decode scaler: %w", err)
	}
	if ok {
		scaler = &s
	}
	type out struct {
		res      []R
		counters map[string]int
	}
	o, err := guard(func() (out, error) {
		res, counters, err := task.Predict(feats, model, scaler)
		return out{res, counters}, err
	})
	return o.res, o.counters, err
}

func mergeCounters(dst map[string]int, info map[string]any) map[string]int {
	for k, v := range info {
		n, ok := v.(int)
		if !ok {
			continue
		}
		if dst == nil {
			dst = map[string]int{}
		}
		dst[k] = n
	}
	return dst
}

// guard converts a panic in fn into an error.
func guard[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

func requireScaler(s *ml.Scaler) error {
	if s == nil {
		return errors.New("model has no scaler")
	}
	return nil
}
