// Package cache stores trained model artifacts keyed by dataset signature and
// task kind. Storage media are pluggable through Store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned by a Store when a key has no value.
var ErrNotFound = errors.New("cache: entry not found")

// Store is a byte-oriented key/value medium. Implementations must be safe
// for concurrent use; concurrent Puts to one key resolve as last write wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Close() error
}

// Entry is one cached model. Entries are never modified in place; a retrain
// stores a new Entry under the same key.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	Signature string          `json:"signature"`
	Kind      string          `json:"kind"`
	Model     json.RawMessage `json:"model"`
	Scaler    json.RawMessage `json:"scaler,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// DecodeModel unmarshals the model state into v.
func (e *Entry) DecodeModel(v any) error {
	if len(e.Model) == 0 {
		return errors.New("cache: entry has no model")
	}
	return json.Unmarshal(e.Model, v)
}

// DecodeScaler unmarshals the scaler state into v. It reports false when the
// entry was stored without a scaler.
func (e *Entry) DecodeScaler(v any) (bool, error) {
	if len(e.Scaler) == 0 || string(e.Scaler) == "null" {
		return false, nil
	}
	return true, json.Unmarshal(e.Scaler, v)
}

// Key builds the storage key for a signature and task kind.
func Key(signature, kind string) string {
	return kind + "_" + signature
}

// ModelCache implements lookup, store and drop of model entries over a Store.
type ModelCache struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// New returns a ModelCache over store. A nil logger discards output.
func New(store Store, logger *zap.Logger) *ModelCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelCache{store: store, logger: logger.Named("cache"), now: time.Now}
}

// Lookup returns the entry for (signature, kind). An entry that cannot be
// decoded is deleted and reported as absent.
func (c *ModelCache) Lookup(ctx context.Context, signature, kind string) (*Entry, bool) {
	key := Key(signature, kind)
	b, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil || e.Kind != kind || e.Signature != signature {
		if err == nil {
			err = errors.New("key does not match entry")
		}
		c.logger.Warn("dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		c.Drop(ctx, signature, kind)
		return nil, false
	}
	return &e, true
}

// Store encodes model and scaler and saves them under (signature, kind),
// replacing any previous entry.
func (c *ModelCache) Store(ctx context.Context, signature, kind string, model, scaler any, meta map[string]any) (*Entry, error) {
	mb, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	var sb json.RawMessage
	if scaler != nil {
		if sb, err = json.Marshal(scaler); err != nil {
			return nil, fmt.Errorf("encode scaler: %w", err)
		}
	}
	e := &Entry{
		ID:        uuid.New(),
		Signature: signature,
		Kind:      kind,
		Model:     mb,
		Scaler:    sb,
		Metadata:  meta,
		CreatedAt: c.now().UTC(),
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	if err := c.store.Put(ctx, Key(signature, kind), b); err != nil {
		return nil, fmt.Errorf("store entry: %w", err)
	}
	c.logger.Debug("stored model", zap.String("kind", kind), zap.String("signature", signature))
	return e, nil
}

// Drop removes the entry for (signature, kind). Missing entries are ignored.
func (c *ModelCache) Drop(ctx context.Context, signature, kind string) {
	if err := c.store.Delete(ctx, Key(signature, kind)); err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("cache delete failed", zap.String("key", Key(signature, kind)), zap.Error(err))
	}
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries int            `json:"entries"`
	ByKind  map[string]int `json:"by_kind"`
}

// Stats counts entries per task kind.
func (c *ModelCache) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list keys: %w", err)
	}
	s := Stats{Entries: len(keys), ByKind: map[string]int{}}
	for _, k := range keys {
		kind := k
		if i := strings.LastIndex(k, "_"); i > 0 {
			kind = k[:i]
		}
		s.ByKind[kind]++
	}
	return s, nil
}

// Kinds returns the task kinds present, sorted.
func (s Stats) Kinds() []string { return sortedKeys(s.ByKind) }

// Clear removes every entry.
func (c *ModelCache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Close releases the underlying store.
func (c *ModelCache) Close() error {
	return c.store.Close()
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
