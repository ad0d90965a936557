package recommend

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/nearbite/nearbite/internal/domain/scoring"
	"github.com/nearbite/nearbite/internal/domain/venue"
)

const (
	maxPayloadReviews  = 30
	maxReviewTokens    = 60
	defaultTokenBudget = 6000

	trendingMinReviews = 500
	trendingMinRating  = 4.2
)

type reviewPayload struct {
	Text   string  `json:"text"`
	Stars  float64 `json:"stars"`
	Age    string  `json:"age"`
	Recent bool    `json:"recent"`
}

type candidatePayload struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Rating         float64         `json:"rating"`
	RatingCount    int             `json:"rating_count"`
	PriceLevel     int             `json:"price_level"`
	Types          []string        `json:"types"`
	Summary        string          `json:"summary,omitempty"`
	WalkingMinutes int             `json:"walking_minutes"`
	OpenStatus     string          `json:"open_status"`
	IsFreshDrop    bool            `json:"is_fresh_drop"`
	IsTrending     bool            `json:"is_trending"`
	CashOnly       bool            `json:"cash_only"`
	Reviews        []reviewPayload `json:"reviews,omitempty"`
}

// tokenCounter bounds the review text shipped to the model. When the encoder
// cannot be initialized it falls back to a rune-count approximation.
type tokenCounter struct {
	encoder *tiktoken.Tiktoken
}

func newTokenCounter(model string) tokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return tokenCounter{}
		}
	}
	return tokenCounter{encoder: enc}
}

func (t tokenCounter) count(text string) int {
	if t.encoder == nil {
		// Rough average of four runes per token.
		return len([]rune(text))/4 + 1
	}
	return len(t.encoder.Encode(text, nil, nil))
}

func (t tokenCounter) trim(text string, budget int) string {
	if t.count(text) <= budget {
		return text
	}
	if t.encoder != nil {
		tokens := t.encoder.Encode(text, nil, nil)
		return t.encoder.Decode(tokens[:budget])
	}
	runes := []rune(text)
	limit := budget * 4
	if limit >= len(runes) {
		return text
	}
	return string(runes[:limit])
}

func buildPayload(candidates []scoring.Candidate, counter tokenCounter, budget int, now time.Time) []candidatePayload {
	if budget <= 0 {
		budget = defaultTokenBudget
	}
	spent := 0
	out := make([]candidatePayload, 0, len(candidates))
	for _, c := range candidates {
		v := c.Venue
		p := candidatePayload{
			ID:          v.ID,
			Name:        v.Name,
			Rating:      v.Rating,
			RatingCount: v.RatingCount,
			PriceLevel:  v.PriceLevel,
			Types:       v.Types,
			Summary:     v.Summary,
			OpenStatus:  openStatusLabel(v, now),
			IsFreshDrop: v.IsFreshDrop(),
			IsTrending:  v.RatingCount >= trendingMinReviews && v.Rating >= trendingMinRating,
			CashOnly:    v.Payment.CashOnly,
		}
		if c.HasDuration {
			p.WalkingMinutes = (c.DurationSeconds + 59) / 60
		}
		for _, review := range recentReviews(v.Reviews, maxPayloadReviews) {
			text := counter.trim(review.Text, maxReviewTokens)
			cost := counter.count(text)
			if spent+cost > budget {
				break
			}
			spent += cost
			p.Reviews = append(p.Reviews, reviewPayload{
				Text:   text,
				Stars:  review.Stars,
				Age:    review.RelativeAge,
				Recent: ageRankDays(review.RelativeAge) <= 60,
			})
		}
		out = append(out, p)
	}
	return out
}

func openStatusLabel(v venue.Venue, now time.Time) string {
	status := venue.ParseTodayHours(v.OpeningHours.WeekdayText, now.Weekday())
	label := status.Label()
	if v.OpeningHours.OpenNow {
		label = "open now, " + label
	}
	return label
}

// recentReviews orders reviews youngest first using the provider's relative
// age strings and keeps at most limit of them.
func recentReviews(reviews []venue.Review, limit int) []venue.Review {
	sorted := make([]venue.Review, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ageRankDays(sorted[i].RelativeAge) < ageRankDays(sorted[j].RelativeAge)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// ageRankDays converts "3 weeks ago" style text into approximate days for
// ordering. Unknown formats sort last.
func ageRankDays(age string) int {
	fields := strings.Fields(strings.ToLower(age))
	if len(fields) < 2 {
		return 1 << 20
	}
	n := 1
	if fields[0] != "a" && fields[0] != "an" {
		parsed, err := strconv.Atoi(fields[0])
		if err != nil {
			return 1 << 20
		}
		n = parsed
	}
	unit := strings.TrimSuffix(fields[1], "s")
	switch unit {
	case "day":
		return n
	case "week":
		return n * 7
	case "month":
		return n * 30
	case "year":
		return n * 365
	default:
		return 1 << 20
	}
}
