// Package runlog records step-level pipeline events to multiple sinks: a
// structured slog stream for live inspection and an archival NDJSON object
// per run. All sinks are best-effort; a sink failure never aborts the
// pipeline.
package runlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one step transition. Identical content goes to every sink.
type Event struct {
	Time    time.Time `json:"time"`
	RunID   uuid.UUID `json:"run_id"`
	Step    string    `json:"step"`
	Ticker  string    `json:"ticker,omitempty"`
	Date    string    `json:"date,omitempty"`
	Outcome string    `json:"outcome"`
	Error   string    `json:"error,omitempty"`
}

// Step names recorded by the pipeline.
const (
	StepExtract   = "extract"
	StepTransform = "transform"
	StepRawWrite  = "raw_write"
	StepLoad      = "load"
	StepAnalytics = "analytics"
	StepReport    = "report"
)

// Outcomes.
const (
	OutcomeStart   = "start"
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Sink receives events. Flush is called once at run end.
type Sink interface {
	Record(ctx context.Context, ev Event) error
	Flush(ctx context.Context) error
}

// Recorder fans events out to the attached sinks. A failing sink is logged
// once and then ignored for the rest of the run. Record is safe for
// concurrent use; units call it from the pipeline's worker pool.
type Recorder struct {
	logger *slog.Logger

	mu     sync.Mutex
	sinks  []Sink
	failed []bool
}

// NewRecorder creates a Recorder over the given sinks.
func NewRecorder(logger *slog.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		sinks:  sinks,
		failed: make([]bool, len(sinks)),
		logger: logger,
	}
}

// Record delivers the event to every healthy sink.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sink := range r.sinks {
		if r.failed[i] {
			continue
		}
		if err := sink.Record(ctx, ev); err != nil {
			r.failed[i] = true
			r.logger.Warn("run log sink failed, disabling for this run",
				"sink", i,
				"error", err,
			)
		}
	}
}

// Flush finalizes every healthy sink.
func (r *Recorder) Flush(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sink := range r.sinks {
		if r.failed[i] {
			continue
		}
		if err := sink.Flush(ctx); err != nil {
			r.logger.Warn("run log sink flush failed", "sink", i, "error", err)
		}
	}
}
