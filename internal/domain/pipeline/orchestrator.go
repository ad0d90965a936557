package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nearbite/nearbite/internal/cache"
	"github.com/nearbite/nearbite/internal/domain/intent"
	"github.com/nearbite/nearbite/internal/domain/recommend"
	"github.com/nearbite/nearbite/internal/domain/scoring"
	"github.com/nearbite/nearbite/internal/domain/venue"
	apperrors "github.com/nearbite/nearbite/pkg/errors"
	"github.com/nearbite/nearbite/pkg/metrics"
	"github.com/nearbite/nearbite/pkg/util"
)

// Preferences is the full input for one user search.
type Preferences struct {
	Origin       venue.LatLng      `json:"origin"`
	Vibe         intent.Vibe       `json:"vibe"`
	Prompt       string            `json:"prompt"`
	Budget       scoring.Budget    `json:"budget"`
	WalkLimit    scoring.WalkLimit `json:"walkLimit"`
	Dietary      []string          `json:"dietary"`
	CashlessOnly bool              `json:"cashlessOnly"`
}

// RunRecord is the best-effort history entry persisted after each run.
type RunRecord struct {
	ID                  string
	OriginKey           string
	Queries             []string
	State               State
	CandidateCount      int
	RecommendationCount int
	Cost                metrics.CostReport
	TookMs              int64
	CreatedAt           time.Time
}

// Recorder persists run history. Write failures are logged and swallowed.
type Recorder interface {
	Record(ctx context.Context, rec RunRecord) error
}

// Config holds orchestrator timing knobs.
type Config struct {
	ErrorResetDelay time.Duration
}

// Orchestrator sequences the pipeline stages as a state machine. A new run
// supersedes the previous one's visibility; in-flight calls still complete
// and warm the caches.
type Orchestrator struct {
	cfg       Config
	planner   intent.Service
	sourcer   *Sourcer
	durations *DurationResolver
	selector  recommend.Service
	history   Recorder
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	state      State
	generation int
}

// NewOrchestrator wires up the pipeline entry point.
func NewOrchestrator(cfg Config, planner intent.Service, sourcer *Sourcer, durations *DurationResolver, selector recommend.Service, history Recorder, logger *slog.Logger) *Orchestrator {
	if cfg.ErrorResetDelay <= 0 {
		cfg.ErrorResetDelay = 5 * time.Second
	}
	return &Orchestrator{
		cfg:       cfg,
		planner:   planner,
		sourcer:   sourcer,
		durations: durations,
		selector:  selector,
		history:   history,
		logger:    logger.With("component", "pipeline.orchestrator"),
		now:       util.NowUTC,
		state:     StateInput,
	}
}

// State returns the current lifecycle position.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Reset transitions any terminal state back to INPUT.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.terminal() {
		o.state = StateInput
	}
}

// Run validates preferences and starts one pipeline run. The returned channel
// carries log, progress and terminal events and is closed when the run ends.
func (o *Orchestrator) Run(ctx context.Context, prefs Preferences) (<-chan Event, error) {
	if prefs.Origin.IsZero() {
		o.transition(StateError)
		o.scheduleErrorReset()
		return nil, apperrors.Wrap("invalid_input", "origin coordinates are required", nil)
	}
	o.transition(StateProcessing)

	runID := uuid.NewString()
	events := make(chan Event, 32)
	go o.execute(ctx, runID, prefs, events)
	return events, nil
}

func (o *Orchestrator) execute(ctx context.Context, runID string, prefs Preferences, events chan<- Event) {
	defer close(events)
	started := o.now()
	emit := newEmitter(events, runID)

	record := RunRecord{
		ID:        runID,
		OriginKey: cache.OriginKey(prefs.Origin.Lat, prefs.Origin.Lng),
		CreatedAt: started,
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline panicked", "run", runID, "panic", r)
			o.transition(StateError)
			o.scheduleErrorReset()
			record.State = StateError
			emit.event(Event{Type: EventError, Error: fmt.Sprint(r)})
		}
		record.TookMs = o.now().Sub(started).Milliseconds()
		o.logger.Info("run finished",
			"run", runID, "state", string(record.State),
			"took_ms", record.TookMs, "live_calls", record.Cost.LiveCalls())
		o.record(record)
	}()

	// Stage 1: intent planning.
	emit.progress(10, "translating intent")
	plan := o.planner.Plan(ctx, intent.Request{Vibe: prefs.Vibe, Prompt: prefs.Prompt, Origin: prefs.Origin})
	record.Queries = plan.Queries
	emit.log(fmt.Sprintf("searching for %d queries", len(plan.Queries)))

	// Stage 2: candidate sourcing.
	emit.progress(35, "finding venues")
	radius := prefs.WalkLimit.RadiusMeters()
	venues, sourceStats := o.sourcer.Source(ctx, plan.Queries, prefs.Origin, radius)
	record.Cost.SearchLive = sourceStats.SearchLive
	record.Cost.SearchCached = sourceStats.SearchCached
	record.Cost.DetailsLive = sourceStats.DetailsLive
	record.Cost.DetailsCached = sourceStats.DetailsCached
	if len(venues) == 0 {
		o.finishEmpty(emit, &record)
		return
	}

	// Stage 3: walking durations.
	emit.progress(55, "measuring walking times")
	durations, durationStats := o.durations.Resolve(ctx, prefs.Origin, venues)
	record.Cost.DurationLive = durationStats.Live
	record.Cost.DurationCached = durationStats.Cached
	record.Cost.DurationFailed = durationStats.Failed

	candidates := make([]scoring.Candidate, 0, len(venues))
	for _, v := range venues {
		c := scoring.Candidate{Venue: v}
		if d, ok := durations[v.ID]; ok {
			c.DurationSeconds = d.Seconds
			c.DurationText = d.Text
			c.HasDuration = true
		}
		candidates = append(candidates, c)
	}

	// Stage 4: adaptive proximity filter + deterministic scoring.
	emit.progress(70, "ranking candidates")
	maxSeconds := prefs.WalkLimit.MaxSeconds()
	kept, tier := scoring.Filter(candidates, maxSeconds)
	if tier == scoring.TierNone {
		o.finishEmpty(emit, &record)
		return
	}
	if tier != scoring.TierStrict {
		// Logged once per run, by contract.
		o.logger.Info("expanding horizon", "run", runID, "tier", tier)
		emit.log("expanding horizon")
	}
	ranked := scoring.Rank(kept, prefs.Budget, maxSeconds)
	record.CandidateCount = len(ranked)

	// Stage 5: generative selection + backfill.
	emit.progress(90, "picking favorites")
	picks := o.selector.Select(ctx, recommend.Request{
		Candidates:   ranked,
		Budget:       prefs.Budget,
		Dietary:      prefs.Dietary,
		CashlessOnly: prefs.CashlessOnly,
		Prompt:       prefs.Prompt,
		FreshOnly:    plan.Hints.FreshOnly,
		TrendingOnly: plan.Hints.TrendingOnly,
	})
	record.RecommendationCount = len(picks)
	if len(picks) == 0 {
		o.finishEmpty(emit, &record)
		return
	}

	o.transition(StateResults)
	record.State = StateResults
	cost := record.Cost
	emit.event(Event{Type: EventProgress, Progress: 100})
	emit.event(Event{Type: EventResults, Recommendations: picks, Cost: &cost})
}

func (o *Orchestrator) finishEmpty(emit *emitter, record *RunRecord) {
	o.transition(StateNoResults)
	record.State = StateNoResults
	cost := record.Cost
	emit.event(Event{Type: EventProgress, Progress: 100})
	emit.event(Event{Type: EventNoResults, Message: "no venues matched this search", Cost: &cost})
}

func (o *Orchestrator) record(rec RunRecord) {
	if o.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := o.history.Record(ctx, rec); err != nil {
		o.logger.Warn("history write failed", "run", rec.ID, "error", err)
	}
}

func (o *Orchestrator) transition(next State) {
	o.mu.Lock()
	o.state = next
	o.generation++
	o.mu.Unlock()
}

// scheduleErrorReset arms the automatic ERROR -> INPUT transition, unless a
// newer run has already moved the machine on.
func (o *Orchestrator) scheduleErrorReset() {
	o.mu.Lock()
	gen := o.generation
	o.mu.Unlock()
	time.AfterFunc(o.cfg.ErrorResetDelay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.state == StateError && o.generation == gen {
			o.state = StateInput
		}
	})
}

// emitter keeps progress monotonically non-decreasing.
type emitter struct {
	events       chan<- Event
	runID        string
	lastProgress int
}

func newEmitter(events chan<- Event, runID string) *emitter {
	return &emitter{events: events, runID: runID}
}

func (e *emitter) event(ev Event) {
	ev.RunID = e.runID
	if ev.Type == EventProgress {
		if ev.Progress < e.lastProgress {
			ev.Progress = e.lastProgress
		}
		e.lastProgress = ev.Progress
	}
	e.events <- ev
}

func (e *emitter) progress(value int, message string) {
	e.event(Event{Type: EventProgress, Progress: value, Message: message})
}

func (e *emitter) log(message string) {
	e.event(Event{Type: EventLog, Message: message})
}
