package model

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus classifies the aggregate result of one pipeline invocation.
type RunStatus string

const (
	// StatusSuccess: every attempted unit succeeded and analytics regenerated.
	StatusSuccess RunStatus = "success"
	// StatusPartial: some units succeeded, some failed, analytics regenerated.
	StatusPartial RunStatus = "partial"
	// StatusFailure: no unit succeeded, or the analytics step failed.
	StatusFailure RunStatus = "failure"
)

// UnitError records one failed extraction unit and the kind of failure.
type UnitError struct {
	Unit ExtractionUnit
	Kind string
	Err  error
}

// RunOutcome aggregates per-unit results for one orchestrator invocation.
// It is created fresh per run and never persisted beyond the run's log
// artifacts.
type RunOutcome struct {
	RunID     uuid.UUID
	Operation string
	Start     Date
	End       Date
	StartedAt time.Time

	Total     int
	Succeeded int
	Failed    int
	Failures  []UnitError

	AnalyticsOK bool
}

// NewRunOutcome creates an outcome for a run over the given range.
func NewRunOutcome(operation string, start, end Date) *RunOutcome {
	return &RunOutcome{
		RunID:     uuid.New(),
		Operation: operation,
		Start:     start,
		End:       end,
		StartedAt: time.Now().UTC(),
	}
}

// RecordSuccess counts one successfully loaded unit.
func (o *RunOutcome) RecordSuccess() {
	o.Succeeded++
}

// RecordFailure counts one terminally failed unit.
func (o *RunOutcome) RecordFailure(unit ExtractionUnit, kind string, err error) {
	o.Failed++
	o.Failures = append(o.Failures, UnitError{Unit: unit, Kind: kind, Err: err})
}

// Classify derives the run status. A run is successful only if every
// attempted unit succeeded and the analytics regeneration succeeded. An
// analytics failure fails the whole run: the downstream table is stale no
// matter how many units loaded.
func (o *RunOutcome) Classify() RunStatus {
	if o.Total == 0 {
		// Nothing attempted (empty expansion or cancelled before the first
		// unit): not a failure.
		return StatusSuccess
	}
	if o.Succeeded == 0 || !o.AnalyticsOK {
		return StatusFailure
	}
	if o.Failed > 0 {
		return StatusPartial
	}
	return StatusSuccess
}
