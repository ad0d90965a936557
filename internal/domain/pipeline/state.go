package pipeline

// State is the orchestrator's lifecycle position. NO_RESULTS is a normal
// business outcome; only unrecoverable failures land in ERROR.
type State string

const (
	StateInput      State = "INPUT"
	StateProcessing State = "PROCESSING"
	StateResults    State = "RESULTS"
	StateNoResults  State = "NO_RESULTS"
	StateError      State = "ERROR"
)

// terminal reports whether a reset is allowed from this state.
func (s State) terminal() bool {
	return s == StateResults || s == StateNoResults || s == StateError
}
