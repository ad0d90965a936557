package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nearbite/nearbite/internal/cache"
	"github.com/nearbite/nearbite/internal/domain/venue"
)

// maxLiveQueries caps billable text searches per run.
const maxLiveQueries = 2

// PlacesClient is the geospatial search provider boundary.
type PlacesClient interface {
	SearchText(ctx context.Context, query string, bias venue.LatLng, radiusMeters int) ([]string, error)
	FetchDetails(ctx context.Context, venueID string) (venue.Venue, error)
}

// SourceStats feeds the run's cost report.
type SourceStats struct {
	SearchLive    int
	SearchCached  int
	DetailsLive   int
	DetailsCached int
	TypeFiltered  int
	ClosedToday   int
}

// Sourcer resolves planned queries into a deduplicated, food-filtered,
// open-today-filtered candidate venue list, cache-first.
type Sourcer struct {
	places  PlacesClient
	search  *cache.Tiered
	details *cache.Tiered
	logger  *slog.Logger
	now     func() time.Time
}

// NewSourcer wires up the candidate sourcer.
func NewSourcer(places PlacesClient, search, details *cache.Tiered, logger *slog.Logger) *Sourcer {
	return &Sourcer{
		places:  places,
		search:  search,
		details: details,
		logger:  logger.With("component", "pipeline.sourcer"),
		now:     time.Now,
	}
}

// Source runs the search and detail stages. Per-unit provider failures drop
// that unit only; partial results are acceptable.
func (s *Sourcer) Source(ctx context.Context, queries []string, origin venue.LatLng, radiusMeters int) ([]venue.Venue, SourceStats) {
	var stats SourceStats
	originKey := cache.OriginKey(origin.Lat, origin.Lng)

	ids := s.searchAll(ctx, queries, origin, originKey, radiusMeters, &stats)
	venues := s.detailsAll(ctx, dedupeIDs(ids), &stats)

	kept := make([]venue.Venue, 0, len(venues))
	weekday := s.now().Weekday()
	for _, v := range venues {
		if !venue.IsFoodEstablishment(v.Types) {
			stats.TypeFiltered++
			continue
		}
		if venue.ParseTodayHours(v.OpeningHours.WeekdayText, weekday).State == venue.ClosedAllDay {
			stats.ClosedToday++
			continue
		}
		kept = append(kept, v)
	}
	s.logger.Info("candidates sourced",
		"queries", len(queries), "venues", len(kept),
		"search_live", stats.SearchLive, "search_cached", stats.SearchCached,
		"details_live", stats.DetailsLive, "details_cached", stats.DetailsCached,
		"type_filtered", stats.TypeFiltered, "closed_today", stats.ClosedToday)
	return kept, stats
}

func (s *Sourcer) searchAll(ctx context.Context, queries []string, origin venue.LatLng, originKey string, radiusMeters int, stats *SourceStats) []string {
	var ids []string
	var live []string
	for _, query := range queries {
		key := cache.SearchKey(originKey, query, radiusMeters)
		if cached, ok := cache.GetJSON[[]string](ctx, s.search, key); ok {
			stats.SearchCached++
			ids = append(ids, cached...)
			continue
		}
		if len(live) < maxLiveQueries {
			live = append(live, query)
		}
	}

	results := joinAll(ctx, live, maxLiveQueries, func(ctx context.Context, query string) ([]string, error) {
		return s.places.SearchText(ctx, query, origin, radiusMeters)
	})
	for i, res := range results {
		if res.Err != nil {
			s.logger.Warn("text search failed", "query", live[i], "error", res.Err)
			continue
		}
		stats.SearchLive++
		ids = append(ids, res.Value...)
		key := cache.SearchKey(originKey, live[i], radiusMeters)
		cache.PutJSON(ctx, s.search, key, res.Value)
	}
	return ids
}

func (s *Sourcer) detailsAll(ctx context.Context, ids []string, stats *SourceStats) []venue.Venue {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.DetailsKey(id)
	}
	found, missingKeys := s.details.GetMany(ctx, keys)

	venues := make(map[string]venue.Venue, len(ids))
	for _, raw := range found {
		var v venue.Venue
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		venues[v.ID] = v
		stats.DetailsCached++
	}

	missing := make([]string, 0, len(missingKeys))
	for _, key := range missingKeys {
		missing = append(missing, key[len("details:"):])
	}
	results := joinAll(ctx, missing, 8, func(ctx context.Context, id string) (venue.Venue, error) {
		return s.places.FetchDetails(ctx, id)
	})
	for i, res := range results {
		if res.Err != nil {
			s.logger.Warn("details fetch failed", "venue", missing[i], "error", res.Err)
			continue
		}
		stats.DetailsLive++
		venues[res.Value.ID] = res.Value
		cache.PutJSON(ctx, s.details, cache.DetailsKey(res.Value.ID), res.Value)
	}

	// Preserve the merged search order.
	out := make([]venue.Venue, 0, len(venues))
	for _, id := range ids {
		if v, ok := venues[id]; ok {
			out = append(out, v)
			delete(venues, id)
		}
	}
	return out
}

func dedupeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
