// Package transform converts raw provider bars into canonical price records.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yamato-aoki/stockpipe/internal/model"
	"github.com/yamato-aoki/stockpipe/internal/provider"
)

// RowError describes one rejected input row.
type RowError struct {
	Index     int
	Timestamp int64
	Reason    string
}

// Error reports the rows rejected while normalizing one ticker's bars.
// It accompanies the valid records rather than replacing them.
type Error struct {
	Ticker string
	Rows   []RowError
}

func (e *Error) Error() string {
	reasons := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		reasons[i] = fmt.Sprintf("row %d: %s", r.Index, r.Reason)
	}
	return fmt.Sprintf("transform %s: %d rows rejected (%s)",
		e.Ticker, len(e.Rows), strings.Join(reasons, "; "))
}

// Normalize converts provider bars into canonical records. Rows missing a
// required field or violating price invariants are collected into the
// returned Error; valid rows are kept. The result is ordered ticker then
// date ascending and is deterministic for a given input.
func Normalize(ticker string, bars []provider.RawBar) ([]model.PriceRecord, *Error) {
	var (
		records  []model.PriceRecord
		rejected []RowError
	)

	seen := make(map[model.Date]bool, len(bars))

	for i, bar := range bars {
		record, reason := normalizeBar(ticker, bar)
		if reason != "" {
			rejected = append(rejected, RowError{Index: i, Timestamp: bar.Timestamp, Reason: reason})
			continue
		}
		if seen[record.Date] {
			rejected = append(rejected, RowError{Index: i, Timestamp: bar.Timestamp,
				Reason: "duplicate date " + record.Date.String()})
			continue
		}
		seen[record.Date] = true
		records = append(records, record)
	}

	model.SortRecords(records)

	if len(rejected) > 0 {
		return records, &Error{Ticker: ticker, Rows: rejected}
	}
	return records, nil
}

// normalizeBar converts one bar, returning a non-empty reason on rejection.
func normalizeBar(ticker string, bar provider.RawBar) (model.PriceRecord, string) {
	if bar.Timestamp <= 0 {
		return model.PriceRecord{}, "missing timestamp"
	}
	for name, v := range map[string]*float64{
		"open": bar.Open, "high": bar.High, "low": bar.Low, "close": bar.Close,
	} {
		if v == nil {
			return model.PriceRecord{}, "missing " + name
		}
	}
	if bar.Volume == nil {
		return model.PriceRecord{}, "missing volume"
	}

	record := model.PriceRecord{
		Ticker:   ticker,
		Date:     exchangeDate(bar.Timestamp, bar.GMTOffset),
		Open:     toPrice(*bar.Open),
		High:     toPrice(*bar.High),
		Low:      toPrice(*bar.Low),
		Close:    toPrice(*bar.Close),
		Volume:   *bar.Volume,
		Currency: bar.Currency,
	}

	if err := record.Validate(); err != nil {
		return model.PriceRecord{}, err.Error()
	}
	return record, ""
}

// exchangeDate resolves a bar timestamp to the exchange-local calendar date,
// independent of the host timezone.
func exchangeDate(ts int64, gmtOffset int) model.Date {
	local := time.Unix(ts, 0).UTC().Add(time.Duration(gmtOffset) * time.Second)
	return model.DateOf(local)
}

// toPrice coerces a provider float to the canonical fixed-precision decimal.
func toPrice(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(model.PricePlaces)
}
