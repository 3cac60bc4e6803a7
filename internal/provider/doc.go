// Package provider implements the market-data provider client.
//
// The client fetches daily OHLCV bars over the chart REST endpoint and
// classifies failures into three kinds: no data (not an error, yields an
// empty result), transient fetch failure, and invalid ticker. The client
// never retries internally; retry policy belongs to the pipeline.
package provider
