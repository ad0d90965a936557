package cachestore

import (
	"context"
	"sync"
	"time"

	"github.com/nearbite/nearbite/internal/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process cache layer guarded by a RWMutex. It backs L1 in
// production and doubles as a fake L2 in tests and cache-less deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory constructs an empty in-process layer.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements cache.Layer.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if hasExpired(e.expiresAt, m.now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// GetMany implements cache.Layer.
func (m *Memory) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok, _ := m.Get(ctx, key); ok {
			out[key] = value
		}
	}
	return out, nil
}

// Put implements cache.Layer. A non-positive TTL stores the entry without
// expiry.
func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: exp}
	m.mu.Unlock()
	return nil
}

// Flush drops every entry.
func (m *Memory) Flush() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

func hasExpired(ts, now time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(now)
}

var _ cache.Layer = (*Memory)(nil)
