package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nearbite/nearbite/internal/domain/venue"
)

func candidate(id string, seconds int, rating float64, count, price int) Candidate {
	return Candidate{
		Venue: venue.Venue{
			ID:          id,
			Rating:      rating,
			RatingCount: count,
			PriceLevel:  price,
		},
		DurationSeconds: seconds,
		HasDuration:     true,
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	c := candidate("v1", 450, 4.5, 120, 2)
	first := Score(c, BudgetMedium, 900)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Score(c, BudgetMedium, 900))
	}
}

func TestScoreCloserStrictlyBetter(t *testing.T) {
	near := candidate("v1", 300, 4.0, 100, 2)
	far := candidate("v2", 600, 4.0, 100, 2)
	require.Greater(t, Score(near, BudgetMedium, 900), Score(far, BudgetMedium, 900))
}

func TestScoreProximityFloorsAtZero(t *testing.T) {
	beyond := candidate("v1", 2700, 0, 0, 0)
	inside := beyond
	inside.DurationSeconds = 0
	// Past the ceiling the proximity term contributes zero, never negative.
	require.Equal(t, Score(beyond, BudgetAny, 900), Score(inside, BudgetAny, 900)-proximityWeight)
}

func TestScorePriceBands(t *testing.T) {
	base := candidate("v1", 900, 0, 0, 2)

	match := base
	require.Equal(t, priceMatchPoints, Score(match, BudgetMedium, 900))

	noPreference := base
	require.Equal(t, priceNeutralPoints, Score(noPreference, BudgetAny, 900))

	missingPrice := base
	missingPrice.Venue.PriceLevel = 0
	require.Equal(t, priceNeutralPoints, Score(missingPrice, BudgetHigh, 900))

	mismatch := base
	mismatch.Venue.PriceLevel = 4
	require.Equal(t, priceMismatchPenalty, Score(mismatch, BudgetLow, 900))
}

func TestScoreBonuses(t *testing.T) {
	gem := candidate("v1", 900, 4.5, 100, 0)
	plain := candidate("v2", 900, 4.5, 2000, 0)
	require.Equal(t, hiddenGemBonus, Score(gem, BudgetAny, 900)-Score(plain, BudgetAny, 900))

	fresh := candidate("v3", 900, 4.2, 10, 0)
	// The fresh venue trades 0.3 raw rating for the freshness bonus.
	require.InDelta(t, freshnessBonus-0.3, Score(fresh, BudgetAny, 900)-Score(plain, BudgetAny, 900), 1e-9)
}

func TestRankTieBreaksByIDForDeterminism(t *testing.T) {
	// Same score inputs, differing only in ID.
	a := candidate("bbb", 450, 4.0, 500, 2)
	b := candidate("aaa", 450, 4.0, 500, 2)

	ranked := Rank([]Candidate{a, b}, BudgetMedium, 900)
	require.Equal(t, "aaa", ranked[0].Venue.ID)
	require.Equal(t, "bbb", ranked[1].Venue.ID)
}

func TestRankCapsAtTopCandidates(t *testing.T) {
	many := make([]Candidate, 0, 60)
	for i := 0; i < 60; i++ {
		many = append(many, candidate(fmt.Sprintf("v%02d", i), 100+i, 4.0, 100, 2))
	}
	ranked := Rank(many, BudgetAny, 900)
	require.Len(t, ranked, TopCandidates)
	// Closest first given otherwise identical venues.
	require.Equal(t, "v00", ranked[0].Venue.ID)
}

func TestFilterEscalatesToRelaxed(t *testing.T) {
	candidates := make([]Candidate, 0, 40)
	for i := 0; i < 40; i++ {
		candidates = append(candidates, candidate(fmt.Sprintf("v%02d", i), 1000+i, 4.0, 50, 2))
	}
	kept, tier := Filter(candidates, 900)
	require.Equal(t, TierRelaxed, tier)
	require.Len(t, kept, 40)
}

func TestFilterStrictWins(t *testing.T) {
	candidates := []Candidate{
		candidate("near", 500, 4.0, 50, 2),
		candidate("far", 1200, 4.9, 50, 2),
	}
	kept, tier := Filter(candidates, 900)
	require.Equal(t, TierStrict, tier)
	require.Len(t, kept, 1)
	require.Equal(t, "near", kept[0].Venue.ID)
}

func TestFilterEmergencyReturnsFiveClosest(t *testing.T) {
	candidates := make([]Candidate, 0, 8)
	for i := 7; i >= 0; i-- {
		candidates = append(candidates, candidate(fmt.Sprintf("v%d", i), 2000+i*100, 4.0, 50, 2))
	}
	unknown := candidate("u1", 0, 4.0, 50, 2)
	unknown.HasDuration = false
	candidates = append(candidates, unknown)

	kept, tier := Filter(candidates, 900)
	require.Equal(t, TierEmergency, tier)
	require.Len(t, kept, 5)
	for i := 0; i < 5; i++ {
		require.Equal(t, fmt.Sprintf("v%d", i), kept[i].Venue.ID)
		if i > 0 {
			require.GreaterOrEqual(t, kept[i].DurationSeconds, kept[i-1].DurationSeconds)
		}
	}
}

func TestFilterAllUnknownYieldsNone(t *testing.T) {
	unknown := candidate("u1", 0, 4.0, 50, 2)
	unknown.HasDuration = false
	kept, tier := Filter([]Candidate{unknown}, 900)
	require.Empty(t, kept)
	require.Equal(t, TierNone, tier)
}

func TestWalkLimitProfiles(t *testing.T) {
	require.Equal(t, 900, Walk15.MaxSeconds())
	require.Equal(t, 2500, Walk15.RadiusMeters())
	require.Equal(t, 900, WalkLimit("unknown").MaxSeconds())
}
