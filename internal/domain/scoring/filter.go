package scoring

import (
	"sort"

	"github.com/nearbite/nearbite/internal/domain/venue"
)

// Candidate is a venue joined with its resolved walking duration for the
// active origin. It lives for one pipeline run only.
type Candidate struct {
	Venue           venue.Venue
	DurationSeconds int
	DurationText    string
	HasDuration     bool
	Score           float64
}

// Tier names the proximity filter level that produced the surviving set.
type Tier string

const (
	TierStrict    Tier = "strict"
	TierRelaxed   Tier = "relaxed"
	TierEmergency Tier = "emergency"
	TierNone      Tier = "none"
)

const (
	relaxedFactor  = 1.5
	emergencyCount = 5
)

// Filter applies the adaptive proximity policy: strict, then relaxed at
// 1.5x the ceiling, then the closest five known-duration candidates. An
// unknown duration fails the threshold tiers outright.
func Filter(candidates []Candidate, maxSeconds int) ([]Candidate, Tier) {
	if strict := withinLimit(candidates, maxSeconds); len(strict) > 0 {
		return strict, TierStrict
	}
	relaxedLimit := int(float64(maxSeconds) * relaxedFactor)
	if relaxed := withinLimit(candidates, relaxedLimit); len(relaxed) > 0 {
		return relaxed, TierRelaxed
	}

	known := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.HasDuration {
			known = append(known, c)
		}
	}
	if len(known) == 0 {
		return nil, TierNone
	}
	sort.SliceStable(known, func(i, j int) bool {
		return known[i].DurationSeconds < known[j].DurationSeconds
	})
	if len(known) > emergencyCount {
		known = known[:emergencyCount]
	}
	return known, TierEmergency
}

func withinLimit(candidates []Candidate, limit int) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.HasDuration && c.DurationSeconds <= limit {
			out = append(out, c)
		}
	}
	return out
}
