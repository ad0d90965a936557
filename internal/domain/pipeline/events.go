package pipeline

import (
	"github.com/nearbite/nearbite/internal/domain/recommend"
	"github.com/nearbite/nearbite/pkg/metrics"
)

// EventType discriminates the entries on a run's event stream.
type EventType string

const (
	EventLog       EventType = "log"
	EventProgress  EventType = "progress"
	EventResults   EventType = "results"
	EventNoResults EventType = "no_results"
	EventError     EventType = "error"
)

// Event is one frame of the pipeline's progress stream. Progress is
// monotonically non-decreasing and advances at stage boundaries.
type Event struct {
	Type            EventType                  `json:"type"`
	RunID           string                     `json:"runId"`
	Message         string                     `json:"message,omitempty"`
	Progress        int                        `json:"progress,omitempty"`
	Recommendations []recommend.Recommendation `json:"recommendations,omitempty"`
	Cost            *metrics.CostReport        `json:"cost,omitempty"`
	Error           string                     `json:"error,omitempty"`
}
