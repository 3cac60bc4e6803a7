// Package warehouse implements the analytical warehouse access layer.
//
// Operations:
//   - Merge of staged daily prices into stock_prices keyed by (ticker, date)
//   - Full regeneration of the denormalized stock_prices_analysis table
//   - Master reference reads and replacement loads
//
// Merges stage into a transaction-scoped temp table and commit through a
// single INSERT ... ON CONFLICT statement, so a failed load never partially
// applies.
package warehouse
