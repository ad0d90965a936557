package cache

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeLayer is an in-memory Layer with call spying for the fire-and-forget
// contract.
type fakeLayer struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	puts    int
	batches int
	failPut bool
}

func newFakeLayer() *fakeLayer {
	return &fakeLayer{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeLayer) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	return value, ok, nil
}

func (f *fakeLayer) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	out := map[string][]byte{}
	for _, key := range keys {
		if value, ok := f.entries[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

func (f *fakeLayer) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPut {
		return context.DeadlineExceeded
	}
	f.entries[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeLayer) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = map[string][]byte{}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTieredPutThenGet(t *testing.T) {
	l1, l2 := newFakeLayer(), newFakeLayer()
	tiered := NewTiered("details", l1, l2, time.Minute, time.Hour, testLogger())

	tiered.Put(context.Background(), "k", []byte("v"))
	tiered.Sync()

	value, ok := tiered.Get(context.Background(), "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)
	require.Equal(t, time.Minute, l1.ttls["k"])
	require.Equal(t, time.Hour, l2.ttls["k"])
}

func TestTieredL2HitBackfillsL1(t *testing.T) {
	l1, l2 := newFakeLayer(), newFakeLayer()
	l2.entries["k"] = []byte("v")
	tiered := NewTiered("details", l1, l2, time.Minute, time.Hour, testLogger())

	value, ok := tiered.Get(context.Background(), "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)
	require.Equal(t, []byte("v"), l1.entries["k"])
}

func TestTieredL2PutFailureIsSwallowed(t *testing.T) {
	l1, l2 := newFakeLayer(), newFakeLayer()
	l2.failPut = true
	tiered := NewTiered("details", l1, l2, time.Minute, time.Hour, testLogger())

	tiered.Put(context.Background(), "k", []byte("v"))
	tiered.Sync()

	_, ok := tiered.Get(context.Background(), "k")
	require.True(t, ok, "L1 must serve the value even when L2 write failed")
	require.Equal(t, 1, l2.puts, "L2 write must still have been attempted")
}

func TestTieredGetManySingleL2RoundTrip(t *testing.T) {
	l1, l2 := newFakeLayer(), newFakeLayer()
	l1.entries["a"] = []byte("1")
	l2.entries["b"] = []byte("2")
	tiered := NewTiered("search", l1, l2, time.Minute, time.Hour, testLogger())

	found, missing := tiered.GetMany(context.Background(), []string{"a", "b", "c", "d"})
	require.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, found)
	require.Equal(t, []string{"c", "d"}, missing)
	require.Equal(t, 1, l2.batches, "a batch must cost at most one L2 round trip")

	stats := tiered.Stats()
	require.Equal(t, uint64(2), stats.Hits)
	require.Equal(t, uint64(2), stats.Misses)
}

func TestTieredCountersResetOnlyOnClear(t *testing.T) {
	l1, l2 := newFakeLayer(), newFakeLayer()
	tiered := NewTiered("distance", l1, l2, time.Minute, time.Hour, testLogger())

	tiered.Get(context.Background(), "missing")
	require.Equal(t, uint64(1), tiered.Stats().Misses)

	tiered.Clear()
	stats := tiered.Stats()
	require.Zero(t, stats.Hits)
	require.Zero(t, stats.Misses)
}

func TestTieredWithoutL2(t *testing.T) {
	l1 := newFakeLayer()
	tiered := NewTiered("search", l1, nil, time.Minute, time.Hour, testLogger())

	tiered.Put(context.Background(), "k", []byte("v"))
	value, ok := tiered.Get(context.Background(), "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)
}

func TestGetPutJSON(t *testing.T) {
	type payload struct {
		IDs []string `json:"ids"`
	}
	tiered := NewTiered("search", newFakeLayer(), nil, time.Minute, time.Hour, testLogger())

	PutJSON(context.Background(), tiered, "k", payload{IDs: []string{"a", "b"}})
	out, ok := GetJSON[payload](context.Background(), tiered, "k")
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, out.IDs)

	_, ok = GetJSON[payload](context.Background(), tiered, "absent")
	require.False(t, ok)
}
