package model

import (
	"errors"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		succeeded   int
		failed      int
		analyticsOK bool
		want        RunStatus
	}{
		{"all succeeded", 3, 3, 0, true, StatusSuccess},
		{"nothing attempted", 0, 0, 0, false, StatusSuccess},
		{"all failed", 3, 0, 3, false, StatusFailure},
		{"mixed", 3, 2, 1, true, StatusPartial},
		{"units ok analytics failed", 3, 3, 0, false, StatusFailure},
		{"mixed analytics failed", 3, 2, 1, false, StatusFailure},
		{"single unit success", 1, 1, 0, true, StatusSuccess},
		{"single unit failure", 1, 0, 1, false, StatusFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &RunOutcome{
				Total:       tt.total,
				Succeeded:   tt.succeeded,
				Failed:      tt.failed,
				AnalyticsOK: tt.analyticsOK,
			}
			if got := o.Classify(); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordFailure(t *testing.T) {
	o := NewRunOutcome("daily", NewDate(2024, time.March, 15), NewDate(2024, time.March, 15))

	unit := ExtractionUnit{Ticker: "BAD", Date: NewDate(2024, time.March, 15)}
	o.RecordFailure(unit, "invalid_ticker", errors.New("not found"))

	if o.Failed != 1 {
		t.Errorf("Failed = %d, want 1", o.Failed)
	}
	if len(o.Failures) != 1 {
		t.Fatalf("len(Failures) = %d, want 1", len(o.Failures))
	}
	if o.Failures[0].Unit != unit || o.Failures[0].Kind != "invalid_ticker" {
		t.Errorf("Failures[0] = %+v, want unit %v kind invalid_ticker", o.Failures[0], unit)
	}
}

func TestNewRunOutcomeAssignsRunID(t *testing.T) {
	a := NewRunOutcome("daily", Date{}, Date{})
	b := NewRunOutcome("daily", Date{}, Date{})
	if a.RunID == b.RunID {
		t.Error("two outcomes share a run ID")
	}
}
