package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "models"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	sq, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	bs, err := OpenBadger("")
	if err != nil {
		t.Fatalf("badger store: %v", err)
	}
	out := map[string]Store{
		BackendMemory: NewMemoryStore(),
		BackendFile:   fs,
		BackendSQLite: sq,
		BackendBadger: bs,
	}
	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("get missing: %v", err)
			}
			if err := s.Put(ctx, "revenue_abc", []byte("v1")); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "revenue_abc", []byte("v2")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			b, err := s.Get(ctx, "revenue_abc")
			if err != nil || string(b) != "v2" {
				t.Fatalf("get = %q, %v", b, err)
			}
			_ = s.Put(ctx, "anomaly_abc", []byte("x"))
			keys, err := s.Keys(ctx)
			if err != nil || len(keys) != 2 {
				t.Fatalf("keys = %v, %v", keys, err)
			}
			if err := s.Delete(ctx, "revenue_abc"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := s.Delete(ctx, "revenue_abc"); err != nil {
				t.Fatalf("second delete should be a no-op: %v", err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if keys, _ := s.Keys(ctx); len(keys) != 0 {
				t.Fatalf("keys after clear = %v", keys)
			}
		})
	}
}

type model struct {
	Weights []float64 `json:"weights"`
}

func TestModelCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := New(s, nil)
			if _, ok := c.Lookup(ctx, "sig", "revenue"); ok {
				t.Fatal("empty cache reported a hit")
			}
			stored, err := c.Store(ctx, "sig", "revenue", model{Weights: []float64{1, 2}}, map[string]float64{"c": 1}, map[string]any{"rows": 3})
			if err != nil {
				t.Fatalf("store: %v", err)
			}
			got, ok := c.Lookup(ctx, "sig", "revenue")
			if !ok {
				t.Fatal("expected hit")
			}
			if got.ID != stored.ID || got.Kind != "revenue" {
				t.Fatalf("entry = %+v", got)
			}
			var m model
			if err := got.DecodeModel(&m); err != nil || len(m.Weights) != 2 {
				t.Fatalf("decode model: %+v, %v", m, err)
			}
			var sc map[string]float64
			if ok, err := got.DecodeScaler(&sc); !ok || err != nil || sc["c"] != 1 {
				t.Fatalf("decode scaler: %v %v %v", sc, ok, err)
			}
			if _, ok := c.Lookup(ctx, "sig", "anomaly"); ok {
				t.Fatal("kinds must not share entries")
			}
			c.Drop(ctx, "sig", "revenue")
			if _, ok := c.Lookup(ctx, "sig", "revenue"); ok {
				t.Fatal("entry survived drop")
			}
		})
	}
}

func TestLookupDropsCorruptEntryOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := New(s, nil)
	_ = s.Put(ctx, Key("sig", "customer"), []byte("{not json"))
	if _, ok := c.Lookup(ctx, "sig", "customer"); ok {
		t.Fatal("corrupt entry reported as hit")
	}
	if _, err := s.Get(ctx, Key("sig", "customer")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("corrupt entry not removed: %v", err)
	}
	if _, err := c.Store(ctx, "sig", "customer", model{}, nil, nil); err != nil {
		t.Fatalf("store after corruption: %v", err)
	}
	if _, ok := c.Lookup(ctx, "sig", "customer"); !ok {
		t.Fatal("fresh entry not found")
	}
}

func TestStatsCountsKinds(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), nil)
	for i := 0; i < 3; i++ {
		_, _ = c.Store(ctx, fmt.Sprintf("s%d", i), "revenue", model{}, nil, nil)
	}
	_, _ = c.Store(ctx, "s0", "anomaly", model{}, nil, nil)
	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Entries != 4 || st.ByKind["revenue"] != 3 || st.ByKind["anomaly"] != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestConcurrentStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = c.Store(ctx, "sig", "revenue", model{Weights: []float64{float64(i)}}, nil, nil)
			c.Lookup(ctx, "sig", "revenue")
		}(i)
	}
	wg.Wait()
	e, ok := c.Lookup(ctx, "sig", "revenue")
	if !ok {
		t.Fatal("expected an entry")
	}
	var m model
	if err := e.DecodeModel(&m); err != nil || len(m.Weights) != 1 {
		t.Fatalf("entry torn: %+v %v", m, err)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), "redis", t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
}
