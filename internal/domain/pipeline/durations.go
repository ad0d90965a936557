package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/nearbite/nearbite/internal/cache"
	"github.com/nearbite/nearbite/internal/domain/venue"
)

const (
	// maxDurationCandidates bounds routing cost when the candidate pool is
	// large; extras are dropped by random sample.
	maxDurationCandidates = 50
	durationBatchSize     = 25
	durationBatchTimeout  = 10 * time.Second
)

// Duration is the cached walking time between an origin bucket and a venue.
type Duration struct {
	Text    string `json:"text"`
	Seconds int    `json:"seconds"`
}

// DurationResult is one element of a routing batch reply.
type DurationResult struct {
	Seconds int
	OK      bool
}

// RoutingClient is the duration provider boundary; primary and secondary
// backends share it.
type RoutingClient interface {
	Durations(ctx context.Context, origin venue.LatLng, dests []venue.LatLng) ([]DurationResult, error)
}

// ResolveStats feeds the run's cost report.
type ResolveStats struct {
	Cached int
	Live   int
	Failed int
}

// DurationResolver resolves walking durations cache-first with batched
// routing calls and a secondary backend fallback.
type DurationResolver struct {
	primary   RoutingClient
	secondary RoutingClient
	cache     *cache.Tiered
	logger    *slog.Logger
	shuffle   func(n int, swap func(i, j int))
}

// NewDurationResolver wires up the resolver. secondary may be nil.
func NewDurationResolver(primary, secondary RoutingClient, distance *cache.Tiered, logger *slog.Logger) *DurationResolver {
	return &DurationResolver{
		primary:   primary,
		secondary: secondary,
		cache:     distance,
		logger:    logger.With("component", "pipeline.durations"),
		shuffle:   rand.Shuffle,
	}
}

// Resolve returns venueID -> Duration for up to maxDurationCandidates venues.
// A timed-out or failed batch marks its venues as duration-unknown rather
// than retrying.
func (r *DurationResolver) Resolve(ctx context.Context, origin venue.LatLng, venues []venue.Venue) (map[string]Duration, ResolveStats) {
	var stats ResolveStats
	sampled := r.sample(venues)
	originKey := cache.OriginKey(origin.Lat, origin.Lng)

	keys := make([]string, len(sampled))
	byKey := make(map[string]venue.Venue, len(sampled))
	for i, v := range sampled {
		keys[i] = cache.DurationKey(originKey, v.ID)
		byKey[keys[i]] = v
	}

	out := make(map[string]Duration, len(sampled))
	found, missingKeys := r.cache.GetMany(ctx, keys)
	for key, raw := range found {
		var d Duration
		if err := json.Unmarshal(raw, &d); err != nil {
			missingKeys = append(missingKeys, key)
			continue
		}
		out[byKey[key].ID] = d
		stats.Cached++
	}

	uncached := make([]venue.Venue, 0, len(missingKeys))
	for _, key := range missingKeys {
		uncached = append(uncached, byKey[key])
	}

	batches := chunk(uncached, durationBatchSize)
	results := joinAll(ctx, batches, 4, func(ctx context.Context, batch []venue.Venue) ([]DurationResult, error) {
		return r.resolveBatch(ctx, origin, batch)
	})
	for i, res := range results {
		batch := batches[i]
		if res.Err != nil {
			stats.Failed += len(batch)
			r.logger.Warn("duration batch failed", "size", len(batch), "error", res.Err)
			continue
		}
		for j, v := range batch {
			if j >= len(res.Value) || !res.Value[j].OK {
				stats.Failed++
				continue
			}
			d := Duration{Seconds: res.Value[j].Seconds, Text: durationText(res.Value[j].Seconds)}
			out[v.ID] = d
			stats.Live++
			cache.PutJSON(ctx, r.cache, cache.DurationKey(originKey, v.ID), d)
		}
	}
	return out, stats
}

func (r *DurationResolver) resolveBatch(ctx context.Context, origin venue.LatLng, batch []venue.Venue) ([]DurationResult, error) {
	dests := make([]venue.LatLng, len(batch))
	for i, v := range batch {
		dests[i] = v.Location
	}
	batchCtx, cancel := context.WithTimeout(ctx, durationBatchTimeout)
	defer cancel()

	durations, err := r.primary.Durations(batchCtx, origin, dests)
	if err == nil {
		return durations, nil
	}
	if r.secondary == nil {
		return nil, err
	}
	r.logger.Warn("primary routing backend failed, trying secondary", "error", err)

	fallbackCtx, cancelFallback := context.WithTimeout(ctx, durationBatchTimeout)
	defer cancelFallback()
	return r.secondary.Durations(fallbackCtx, origin, dests)
}

func (r *DurationResolver) sample(venues []venue.Venue) []venue.Venue {
	if len(venues) <= maxDurationCandidates {
		return venues
	}
	sampled := make([]venue.Venue, len(venues))
	copy(sampled, venues)
	r.shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	return sampled[:maxDurationCandidates]
}

func durationText(seconds int) string {
	minutes := (seconds + 59) / 60
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min", minutes)
}

func chunk(venues []venue.Venue, size int) [][]venue.Venue {
	var out [][]venue.Venue
	for start := 0; start < len(venues); start += size {
		end := start + size
		if end > len(venues) {
			end = len(venues)
		}
		out = append(out, venues[start:end])
	}
	return out
}
