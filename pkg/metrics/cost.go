package metrics

// CostReport accounts for paid provider traffic within a single pipeline run.
// Cached counts tell us how much money the tiered cache saved.
type CostReport struct {
	SearchLive     int `json:"searchLive"`
	SearchCached   int `json:"searchCached"`
	DetailsLive    int `json:"detailsLive"`
	DetailsCached  int `json:"detailsCached"`
	DurationLive   int `json:"durationLive"`
	DurationCached int `json:"durationCached"`
	DurationFailed int `json:"durationFailed"`
}

// LiveCalls sums every billable request issued during the run.
func (r CostReport) LiveCalls() int {
	return r.SearchLive + r.DetailsLive + r.DurationLive
}

// IsZero reports whether the run touched any provider or cache at all.
func (r CostReport) IsZero() bool {
	return r == CostReport{}
}
