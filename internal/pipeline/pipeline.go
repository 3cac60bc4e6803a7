package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yamato-aoki/stockpipe/internal/config"
	"github.com/yamato-aoki/stockpipe/internal/model"
	"github.com/yamato-aoki/stockpipe/internal/provider"
	"github.com/yamato-aoki/stockpipe/internal/rawstore"
	"github.com/yamato-aoki/stockpipe/internal/runlog"
)

// Extractor fetches raw bars for one ticker over a date range.
type Extractor interface {
	GetDailyBars(ctx context.Context, ticker string, start, end model.Date) ([]provider.RawBar, error)
}

// RawWriter persists canonical records to the raw object store.
type RawWriter interface {
	Write(ctx context.Context, ticker string, date model.Date, records []model.PriceRecord) (string, error)
}

// Warehouse loads price batches and maintains the analytics table.
type Warehouse interface {
	MergeDailyPrices(ctx context.Context, batch []model.PriceRecord) error
	MissingMasters(ctx context.Context) ([]string, error)
	RebuildAnalytics(ctx context.Context) error
	ListTickers(ctx context.Context) ([]string, error)
	ReplaceMasters(ctx context.Context, masters []model.MasterRecord) error
}

// Notifier delivers the run summary.
type Notifier interface {
	NotifyRun(ctx context.Context, outcome *model.RunOutcome) error
}

// Request is a resolved extraction request: explicit tickers and an
// inclusive date range. RunID, when set, identifies the run in log
// artifacts created around the runner (archive sink key); a zero RunID
// gets a fresh one.
type Request struct {
	RunID     uuid.UUID
	Operation string
	Tickers   []string
	Start     model.Date
	End       model.Date
}

// Runner orchestrates ETL runs.
type Runner struct {
	cfg       config.PipelineConfig
	extractor Extractor
	rawWriter RawWriter
	warehouse Warehouse
	notifier  Notifier
	store     rawstore.ObjectStore
	recorder  *runlog.Recorder
	logger    *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(
	cfg config.PipelineConfig,
	extractor Extractor,
	rawWriter RawWriter,
	warehouse Warehouse,
	notifier Notifier,
	store rawstore.ObjectStore,
	recorder *runlog.Recorder,
	logger *slog.Logger,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:       cfg,
		extractor: extractor,
		rawWriter: rawWriter,
		warehouse: warehouse,
		notifier:  notifier,
		store:     store,
		recorder:  recorder,
		logger:    logger,
	}
}

// Run executes one ETL invocation and returns its outcome. Cancelling ctx
// stops scheduling new units; units already committed stay committed, and
// the outcome reflects only what was attempted.
func (r *Runner) Run(ctx context.Context, req Request) *model.RunOutcome {
	outcome := model.NewRunOutcome(req.Operation, req.Start, req.End)
	if req.RunID != uuid.Nil {
		outcome.RunID = req.RunID
	}
	start := time.Now()

	units := model.ExpandUnits(req.Tickers, req.Start, req.End)
	r.logger.Info("run started",
		"run_id", outcome.RunID,
		"operation", req.Operation,
		"tickers", len(req.Tickers),
		"start", req.Start,
		"end", req.End,
		"units", len(units),
	)

	r.processUnits(ctx, units, outcome)
	r.runAnalytics(ctx, outcome)
	r.report(ctx, outcome)

	r.logger.Info("run finished",
		"run_id", outcome.RunID,
		"status", outcome.Classify(),
		"total", outcome.Total,
		"succeeded", outcome.Succeeded,
		"failed", outcome.Failed,
		"duration", time.Since(start),
	)
	return outcome
}

// processUnits drives every unit through the per-unit flow on a bounded
// worker pool. Units are independent: they share no mutable state beyond
// the outcome, and no two units write the same (ticker, date) key.
func (r *Runner) processUnits(ctx context.Context, units []model.ExtractionUnit, outcome *model.RunOutcome) {
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, unit := range units {
		// Cancelled: remaining units are simply not attempted.
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(unit model.ExtractionUnit) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			kind, err := r.runUnit(ctx, outcome.RunID, unit)

			mu.Lock()
			defer mu.Unlock()
			outcome.Total++
			if err != nil {
				outcome.RecordFailure(unit, kind, err)
			} else {
				outcome.RecordSuccess()
			}
		}(unit)
	}

	wg.Wait()
}

// runAnalytics regenerates the analytics table exactly once per run,
// best-effort over whatever loaded successfully.
func (r *Runner) runAnalytics(ctx context.Context, outcome *model.RunOutcome) {
	if ctx.Err() != nil {
		r.recorder.Record(ctx, runlog.Event{
			RunID: outcome.RunID, Step: runlog.StepAnalytics,
			Outcome: runlog.OutcomeSkipped, Error: ctx.Err().Error(),
		})
		return
	}

	r.recorder.Record(ctx, runlog.Event{
		RunID: outcome.RunID, Step: runlog.StepAnalytics, Outcome: runlog.OutcomeStart,
	})

	missing, err := r.warehouse.MissingMasters(ctx)
	if err == nil {
		if len(missing) > 0 {
			// Excluded from the rebuild, never a reason to abort it.
			r.logger.Warn("tickers missing master reference, excluded from analytics",
				"tickers", missing,
			)
		}
		err = r.warehouse.RebuildAnalytics(ctx)
	}

	if err != nil {
		r.recorder.Record(ctx, runlog.Event{
			RunID: outcome.RunID, Step: runlog.StepAnalytics,
			Outcome: runlog.OutcomeFailed, Error: err.Error(),
		})
		return
	}

	outcome.AnalyticsOK = true
	r.recorder.Record(ctx, runlog.Event{
		RunID: outcome.RunID, Step: runlog.StepAnalytics, Outcome: runlog.OutcomeOK,
	})
}

// report always runs, even when every unit failed or the run was cancelled.
func (r *Runner) report(ctx context.Context, outcome *model.RunOutcome) {
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := r.notifier.NotifyRun(reportCtx, outcome); err != nil {
		// Notification failure never fails the run.
		r.logger.Warn("run notification failed", "error", err)
	}

	r.recorder.Record(reportCtx, runlog.Event{
		RunID: outcome.RunID, Step: runlog.StepReport,
		Outcome: runlog.OutcomeOK,
	})
	r.recorder.Flush(reportCtx)
}
