package intent

// Vibe is the coarse mood selector offered by the client.
type Vibe string

const (
	VibeNone        Vibe = ""
	VibeGrabAndGo   Vibe = "grab_and_go"
	VibeDateNight   Vibe = "date_night"
	VibeCozy        Vibe = "cozy"
	VibeCelebration Vibe = "celebration"
	VibeHealthy     Vibe = "healthy"
	VibeLateNight   Vibe = "late_night"
)

// vibeQueries maps each vibe to its search query set. "restaurant" is always
// appended by the planner as the broad fallback query.
var vibeQueries = map[Vibe][]string{
	VibeGrabAndGo:   {"quick bites", "takeout food", "food truck", "bakery"},
	VibeDateNight:   {"romantic restaurant", "wine bar", "intimate dining"},
	VibeCozy:        {"cozy cafe", "comfort food", "neighborhood bistro"},
	VibeCelebration: {"fine dining", "celebration dinner", "rooftop restaurant"},
	VibeHealthy:     {"salad bar", "healthy food", "poke bowl", "juice bar"},
	VibeLateNight:   {"late night food", "24 hour diner", "izakaya"},
	VibeNone:        {"good food nearby"},
}

func queriesForVibe(v Vibe) []string {
	queries, ok := vibeQueries[v]
	if !ok {
		queries = vibeQueries[VibeNone]
	}
	out := make([]string, 0, len(queries)+1)
	out = append(out, queries...)
	return append(out, "restaurant")
}
