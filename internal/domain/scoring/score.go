package scoring

import "sort"

const (
	proximityWeight      = 15.0
	priceMatchPoints     = 10.0
	priceNeutralPoints   = 7.0
	priceMismatchPenalty = -5.0
	hiddenGemBonus       = 5.0
	freshnessBonus       = 8.0

	hiddenGemMinRating  = 4.3
	hiddenGemMinReviews = 25
	hiddenGemMaxReviews = 250
	freshnessMinRating  = 4.0
	freshnessMaxReviews = 20

	// TopCandidates bounds how many ranked candidates move on to the
	// recommendation selector.
	TopCandidates = 40
)

// Score is pure and deterministic: the same candidate, budget and ceiling
// always produce the same value. Closer strictly beats farther, all else
// equal.
func Score(c Candidate, budget Budget, maxSeconds int) float64 {
	score := proximityScore(c, maxSeconds)
	score += priceScore(c, budget)

	v := c.Venue
	if v.Rating > hiddenGemMinRating && v.RatingCount >= hiddenGemMinReviews && v.RatingCount <= hiddenGemMaxReviews {
		score += hiddenGemBonus
	}
	if v.Rating >= freshnessMinRating && v.RatingCount > 0 && v.RatingCount <= freshnessMaxReviews {
		score += freshnessBonus
	}
	score += v.Rating
	return score
}

func proximityScore(c Candidate, maxSeconds int) float64 {
	if !c.HasDuration || maxSeconds <= 0 {
		return 0
	}
	score := proximityWeight * (1 - float64(c.DurationSeconds)/float64(maxSeconds))
	if score < 0 {
		return 0
	}
	return score
}

func priceScore(c Candidate, budget Budget) float64 {
	price := c.Venue.PriceLevel
	band, declared := budgetBands[budget]
	if !declared || price == 0 {
		return priceNeutralPoints
	}
	for _, level := range band {
		if price == level {
			return priceMatchPoints
		}
	}
	// Only a clear mismatch is punished: a cheap pick against a high budget
	// or an expensive one against a low budget.
	if (budget == BudgetLow && price >= 4) || (budget == BudgetHigh && price <= 1) {
		return priceMismatchPenalty
	}
	return 0
}

// Rank scores every candidate and returns the top set ordered by score
// descending, raw rating descending, then venue ID for determinism.
func Rank(candidates []Candidate, budget Budget, maxSeconds int) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].Score = Score(ranked[i], budget, maxSeconds)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Venue.Rating != ranked[j].Venue.Rating {
			return ranked[i].Venue.Rating > ranked[j].Venue.Rating
		}
		return ranked[i].Venue.ID < ranked[j].Venue.ID
	})
	if len(ranked) > TopCandidates {
		ranked = ranked[:TopCandidates]
	}
	return ranked
}
