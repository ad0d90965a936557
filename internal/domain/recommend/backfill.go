package recommend

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nearbite/nearbite/internal/domain/scoring"
	"github.com/nearbite/nearbite/internal/domain/venue"
)

var dishPatternRe = regexp.MustCompile(`(?i)(?:try the|best|loved the)\s+([a-zA-Z][a-zA-Z' -]{2,40}?)(?:[.!,;]|$)`)

// backfill pads picks up to want entries using the highest-rated candidates
// that were not already recommended.
func backfill(picks []Recommendation, candidates []scoring.Candidate, want int) []Recommendation {
	if len(picks) >= want {
		return picks
	}
	taken := make(map[string]struct{}, len(picks))
	for _, r := range picks {
		taken[r.VenueID] = struct{}{}
	}

	pool := make([]scoring.Candidate, len(candidates))
	copy(pool, candidates)
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Venue.Rating != pool[j].Venue.Rating {
			return pool[i].Venue.Rating > pool[j].Venue.Rating
		}
		return pool[i].Venue.ID < pool[j].Venue.ID
	})

	for _, c := range pool {
		if len(picks) >= want {
			break
		}
		if _, ok := taken[c.Venue.ID]; ok {
			continue
		}
		taken[c.Venue.ID] = struct{}{}
		picks = append(picks, Recommendation{
			VenueID:         c.Venue.ID,
			Name:            c.Venue.Name,
			Reason:          backfillReason(c.Venue),
			RecommendedDish: backfillDish(c.Venue),
			IsCashOnly:      c.Venue.Payment.CashOnly,
			IsFreshDrop:     c.Venue.IsFreshDrop(),
			Backfilled:      true,
		})
	}
	return picks
}

func backfillReason(v venue.Venue) string {
	if summary := strings.TrimSpace(v.Summary); summary != "" {
		return summary
	}
	if v.HasRating() {
		return fmt.Sprintf("Rated %.1f by %d locals nearby.", v.Rating, v.RatingCount)
	}
	return "A solid nearby option for this search."
}

// backfillDish mines the reviews for a "try the X" style mention and falls
// back to a generic placeholder.
func backfillDish(v venue.Venue) string {
	for _, review := range v.Reviews {
		if match := dishPatternRe.FindStringSubmatch(review.Text); len(match) == 2 {
			return strings.TrimSpace(match[1])
		}
	}
	return "the house special"
}
