package venue

import "strings"

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether no coordinate was provided.
func (l LatLng) IsZero() bool {
	return l.Lat == 0 && l.Lng == 0
}

// Review is one user review as returned by the search provider.
type Review struct {
	Text        string  `json:"text"`
	Stars       float64 `json:"stars"`
	RelativeAge string  `json:"relativeAge"`
}

// OpeningHours carries the provider's per-weekday text plus its live flag.
type OpeningHours struct {
	OpenNow     bool     `json:"openNow"`
	WeekdayText []string `json:"weekdayText"`
}

// PaymentOptions captures the payment flags relevant to cashless users.
type PaymentOptions struct {
	CashOnly     bool `json:"cashOnly"`
	AcceptsCards bool `json:"acceptsCards"`
}

// Venue is the immutable detail record for one place. The provider ID is the
// join key across every cache and pipeline stage.
type Venue struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Location     LatLng         `json:"location"`
	Rating       float64        `json:"rating"`
	RatingCount  int            `json:"ratingCount"`
	PriceLevel   int            `json:"priceLevel"`
	Types        []string       `json:"types"`
	OpeningHours OpeningHours   `json:"openingHours"`
	Reviews      []Review       `json:"reviews"`
	Payment      PaymentOptions `json:"payment"`
	Summary      string         `json:"summary"`
}

// HasRating reports whether the provider returned any rating data.
func (v Venue) HasRating() bool {
	return v.Rating > 0 && v.RatingCount > 0
}

// freshDropMaxReviews bounds how many reviews a venue may have and still be
// treated as newly opened.
const freshDropMaxReviews = 20

// IsFreshDrop heuristically flags a recently opened venue: few reviews and
// none of them older than months.
func (v Venue) IsFreshDrop() bool {
	if v.RatingCount <= 0 || v.RatingCount > freshDropMaxReviews {
		return false
	}
	for _, review := range v.Reviews {
		if strings.Contains(strings.ToLower(review.RelativeAge), "year") {
			return false
		}
	}
	return true
}
