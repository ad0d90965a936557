package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Layer is a single key/value tier. The in-process L1 and the shared L2 both
// satisfy it so the tiered cache stays agnostic of the backing store.
type Layer interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Stats carries the hit/miss counters used for cost accounting.
type Stats struct {
	Name   string `json:"name"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// Tiered fronts one logical cache (search, details or distance) with a
// short-TTL L1 and a longer-TTL L2. L2 is consulted only on L1 miss and
// written to asynchronously.
type Tiered struct {
	name   string
	l1     Layer
	l2     Layer
	l1TTL  time.Duration
	l2TTL  time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	hits   uint64
	misses uint64

	pending sync.WaitGroup
}

// NewTiered constructs a named tiered cache. l2 may be nil when no shared
// store is configured; the cache then degrades to a single tier.
func NewTiered(name string, l1, l2 Layer, l1TTL, l2TTL time.Duration, logger *slog.Logger) *Tiered {
	return &Tiered{
		name:   name,
		l1:     l1,
		l2:     l2,
		l1TTL:  l1TTL,
		l2TTL:  l2TTL,
		logger: logger.With("component", "cache."+name),
	}
}

// Get looks up key in L1 then L2, backfilling L1 on an L2 hit. Layer errors
// are logged and treated as misses.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if value, ok, err := t.l1.Get(ctx, key); err == nil && ok {
		t.count(1, 0)
		return value, true
	} else if err != nil {
		t.logger.Warn("l1 get failed", "key", key, "error", err)
	}
	if t.l2 != nil {
		value, ok, err := t.l2.Get(ctx, key)
		if err != nil {
			t.logger.Warn("l2 get failed", "key", key, "error", err)
		} else if ok {
			if err := t.l1.Put(ctx, key, value, t.l1TTL); err != nil {
				t.logger.Warn("l1 backfill failed", "key", key, "error", err)
			}
			t.count(1, 0)
			return value, true
		}
	}
	t.count(0, 1)
	return nil, false
}

// GetMany resolves a batch of keys with at most one L2 round trip.
// It returns the found values and the keys that missed both tiers.
func (t *Tiered) GetMany(ctx context.Context, keys []string) (map[string][]byte, []string) {
	found := make(map[string][]byte, len(keys))
	missing := make([]string, 0, len(keys))
	for _, key := range keys {
		value, ok, err := t.l1.Get(ctx, key)
		if err != nil {
			t.logger.Warn("l1 get failed", "key", key, "error", err)
		}
		if err == nil && ok {
			found[key] = value
			continue
		}
		missing = append(missing, key)
	}
	if t.l2 != nil && len(missing) > 0 {
		values, err := t.l2.GetMany(ctx, missing)
		if err != nil {
			t.logger.Warn("l2 batch get failed", "keys", len(missing), "error", err)
		} else {
			remaining := missing[:0]
			for _, key := range missing {
				value, ok := values[key]
				if !ok {
					remaining = append(remaining, key)
					continue
				}
				if err := t.l1.Put(ctx, key, value, t.l1TTL); err != nil {
					t.logger.Warn("l1 backfill failed", "key", key, "error", err)
				}
				found[key] = value
			}
			missing = remaining
		}
	}
	t.count(uint64(len(found)), uint64(len(missing)))
	return found, missing
}

// Put writes L1 synchronously and L2 best-effort in the background. A failed
// L2 write never surfaces to the caller.
func (t *Tiered) Put(ctx context.Context, key string, value []byte) {
	if err := t.l1.Put(ctx, key, value, t.l1TTL); err != nil {
		t.logger.Warn("l1 put failed", "key", key, "error", err)
	}
	if t.l2 == nil {
		return
	}
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.l2.Put(writeCtx, key, value, t.l2TTL); err != nil {
			t.logger.Warn("l2 put failed", "key", key, "error", err)
		}
	}()
}

// Sync blocks until in-flight background L2 writes settle.
func (t *Tiered) Sync() {
	t.pending.Wait()
}

// Stats snapshots the hit/miss counters.
func (t *Tiered) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{Name: t.name, Hits: t.hits, Misses: t.misses}
}

// Clear resets the counters and flushes L1 when the layer supports it.
func (t *Tiered) Clear() {
	t.mu.Lock()
	t.hits = 0
	t.misses = 0
	t.mu.Unlock()
	if flusher, ok := t.l1.(interface{ Flush() }); ok {
		flusher.Flush()
	}
}

func (t *Tiered) count(hits, misses uint64) {
	t.mu.Lock()
	t.hits += hits
	t.misses += misses
	t.mu.Unlock()
}

// GetJSON unmarshals a cached value into T.
func GetJSON[T any](ctx context.Context, t *Tiered, key string) (T, bool) {
	var out T
	raw, ok := t.Get(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

// PutJSON marshals v and stores it under key. Marshal failures are swallowed;
// cache writes are always best-effort.
func PutJSON[T any](ctx context.Context, t *Tiered, key string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	t.Put(ctx, key, raw)
}
