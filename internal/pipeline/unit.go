package pipeline

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/yamato-aoki/stockpipe/internal/model"
	"github.com/yamato-aoki/stockpipe/internal/provider"
	"github.com/yamato-aoki/stockpipe/internal/runlog"
	"github.com/yamato-aoki/stockpipe/internal/transform"
)

// Failure kinds recorded in the run outcome.
const (
	KindInvalidTicker = "invalid_ticker"
	KindTransient     = "transient"
	KindStorage       = "storage"
	KindLoad          = "load"
)

// runUnit drives one (ticker, date) unit through extract, transform, raw
// write and load. Returns the failure kind and error, or ("", nil) on
// success. A day the provider has no data for is a success: the empty raw
// object records that the date was checked.
func (r *Runner) runUnit(ctx context.Context, runID uuid.UUID, unit model.ExtractionUnit) (string, error) {
	unitCtx, cancel := context.WithTimeout(ctx, r.cfg.UnitTimeout)
	defer cancel()

	// Extract. Transient provider failures and timeouts retry with backoff;
	// invalid tickers fail immediately.
	r.record(unitCtx, runID, unit, runlog.StepExtract, runlog.OutcomeStart, nil)

	var bars []provider.RawBar
	err := r.retry(unitCtx, unit, "extract", func() error {
		var err error
		bars, err = r.extractor.GetDailyBars(unitCtx, unit.Ticker, unit.Date, unit.Date)
		if err != nil && !provider.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		kind := KindTransient
		if provider.IsInvalidTicker(err) {
			kind = KindInvalidTicker
		}
		r.record(unitCtx, runID, unit, runlog.StepExtract, runlog.OutcomeFailed, err)
		return kind, err
	}
	r.record(unitCtx, runID, unit, runlog.StepExtract, runlog.OutcomeOK, nil)

	// Transform. Rejected rows are reported but never abort the valid ones.
	records, rowErr := transform.Normalize(unit.Ticker, bars)
	var rejectErr error
	if rowErr != nil {
		rejectErr = rowErr
	}
	r.record(unitCtx, runID, unit, runlog.StepTransform, runlog.OutcomeOK, rejectErr)
	if rowErr != nil {
		r.logger.Warn("rows rejected during transform",
			"ticker", unit.Ticker,
			"date", unit.Date,
			"rejected", len(rowErr.Rows),
			"error", rowErr,
		)
	}

	// Raw store write. Idempotent overwrite, retried on I/O failure. An
	// empty record set still writes an empty object.
	err = r.retry(unitCtx, unit, "raw write", func() error {
		_, err := r.rawWriter.Write(unitCtx, unit.Ticker, unit.Date, records)
		return err
	})
	if err != nil {
		r.record(unitCtx, runID, unit, runlog.StepRawWrite, runlog.OutcomeFailed, err)
		return KindStorage, err
	}
	r.record(unitCtx, runID, unit, runlog.StepRawWrite, runlog.OutcomeOK, nil)

	// Load. The merge is all-or-nothing per batch; a failure aborts only
	// this unit's commit.
	if err := r.warehouse.MergeDailyPrices(unitCtx, records); err != nil {
		r.record(unitCtx, runID, unit, runlog.StepLoad, runlog.OutcomeFailed, err)
		return KindLoad, err
	}
	r.record(unitCtx, runID, unit, runlog.StepLoad, runlog.OutcomeOK, nil)

	return "", nil
}

// retry runs op with exponential backoff bounded by the unit context.
func (r *Runner) retry(ctx context.Context, unit model.ExtractionUnit, step string, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.RetryInitialInterval
	bo.MaxElapsedTime = r.cfg.RetryMaxElapsed

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("retrying step",
			"step", step,
			"ticker", unit.Ticker,
			"date", unit.Date,
			"wait", wait,
			"error", err,
		)
	}

	return backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify)
}

func (r *Runner) record(ctx context.Context, runID uuid.UUID, unit model.ExtractionUnit, step, outcome string, err error) {
	ev := runlog.Event{
		RunID:   runID,
		Step:    step,
		Ticker:  unit.Ticker,
		Date:    unit.Date.String(),
		Outcome: outcome,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	r.recorder.Record(ctx, ev)
}
