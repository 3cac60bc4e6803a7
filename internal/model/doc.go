// Package model defines shared data types used across the ETL pipeline.
//
// Conventions:
//   - Prices: shopspring decimal, canonical rendering at 4 decimal places
//   - Dates: calendar dates (no time component), exchange-local
//   - IDs: string tickers, uuid.UUID for run IDs
package model
