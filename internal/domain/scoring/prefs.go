package scoring

// Budget is the user's declared price band.
type Budget string

const (
	BudgetAny    Budget = ""
	BudgetLow    Budget = "low"
	BudgetMedium Budget = "medium"
	BudgetHigh   Budget = "high"
)

// budgetBands maps each band to the acceptable ordinal price levels.
var budgetBands = map[Budget][]int{
	BudgetLow:    {1},
	BudgetMedium: {2, 3},
	BudgetHigh:   {4, 5},
}

// WalkLimit is the user's walk-time preference.
type WalkLimit string

const (
	Walk10 WalkLimit = "10min"
	Walk15 WalkLimit = "15min"
	Walk30 WalkLimit = "30min"
	Walk60 WalkLimit = "60min"
)

type walkProfile struct {
	maxSeconds   int
	radiusMeters int
}

var walkProfiles = map[WalkLimit]walkProfile{
	Walk10: {maxSeconds: 600, radiusMeters: 1500},
	Walk15: {maxSeconds: 900, radiusMeters: 2500},
	Walk30: {maxSeconds: 1800, radiusMeters: 4000},
	Walk60: {maxSeconds: 3600, radiusMeters: 6000},
}

// MaxSeconds resolves the strict duration ceiling for a walk limit.
// Unknown limits fall back to the 15 minute profile.
func (w WalkLimit) MaxSeconds() int {
	return w.profile().maxSeconds
}

// RadiusMeters resolves the provider search radius for a walk limit.
func (w WalkLimit) RadiusMeters() int {
	return w.profile().radiusMeters
}

func (w WalkLimit) profile() walkProfile {
	if p, ok := walkProfiles[w]; ok {
		return p
	}
	return walkProfiles[Walk15]
}
