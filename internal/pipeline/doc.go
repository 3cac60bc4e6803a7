// Package pipeline orchestrates one ETL run.
//
// A run expands a (tickers, date range) request into extraction units and
// drives each unit through extract, normalize, raw store write and
// warehouse merge. Units are isolated: one failure is recorded and the
// rest of the batch proceeds. Analytics regeneration runs exactly once
// after all units, and reporting always runs.
//
// Unit flow per run:
//
//	expand -> [extract -> transform -> raw write -> load] per unit -> analytics -> report
//
// Units run on a bounded worker pool. Transient provider and storage
// failures retry with exponential backoff inside the unit's timeout;
// retry never happens inside the provider client itself.
package pipeline
