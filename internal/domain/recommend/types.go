package recommend

import (
	"github.com/nearbite/nearbite/internal/domain/scoring"
)

// FinalCount is how many recommendations a run delivers at most.
const FinalCount = 3

// Recommendation is one final pick returned to the client. Backfilled marks
// entries synthesized algorithmically when the AI under-delivered.
type Recommendation struct {
	VenueID         string `json:"venueId"`
	Name            string `json:"name"`
	Reason          string `json:"reason"`
	RecommendedDish string `json:"recommendedDish"`
	IsCashOnly      bool   `json:"isCashOnly"`
	IsFreshDrop     bool   `json:"isFreshDrop"`
	Backfilled      bool   `json:"backfilled"`
}

// Request carries the ranked candidates plus the user constraints that shape
// the generative prompt.
type Request struct {
	Candidates   []scoring.Candidate
	Budget       scoring.Budget
	Dietary      []string
	CashlessOnly bool
	Prompt       string
	FreshOnly    bool
	TrendingOnly bool
}

// Config holds runtime knobs for the selector.
type Config struct {
	Model       string
	Temperature float32
	TokenBudget int
}
