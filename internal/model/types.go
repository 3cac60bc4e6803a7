package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// PricePlaces is the number of decimal places in the canonical price rendering.
const PricePlaces = 4

// PriceRecord is the canonical representation of one daily price observation,
// independent of provider-specific formatting. (Ticker, Date) uniquely
// identifies a record within a run.
type PriceRecord struct {
	Ticker   string          `json:"ticker"`
	Date     Date            `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   int64           `json:"volume"`
	Currency string          `json:"currency"`
}

// Validate checks the record invariants: all numeric fields non-negative,
// high >= low, and open/close within [low, high].
func (r PriceRecord) Validate() error {
	if r.Ticker == "" {
		return errors.New("ticker is empty")
	}
	if r.Date.IsZero() {
		return errors.New("date is zero")
	}
	if r.Volume < 0 {
		return fmt.Errorf("volume %d is negative", r.Volume)
	}
	for name, v := range map[string]decimal.Decimal{
		"open": r.Open, "high": r.High, "low": r.Low, "close": r.Close,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s price %s is negative", name, v)
		}
	}
	if r.High.LessThan(r.Low) {
		return fmt.Errorf("high %s < low %s", r.High, r.Low)
	}
	if r.Open.GreaterThan(r.High) || r.Open.LessThan(r.Low) {
		return fmt.Errorf("open %s outside [%s, %s]", r.Open, r.Low, r.High)
	}
	if r.Close.GreaterThan(r.High) || r.Close.LessThan(r.Low) {
		return fmt.Errorf("close %s outside [%s, %s]", r.Close, r.Low, r.High)
	}
	return nil
}

// SortRecords orders records ticker ascending, then date ascending, in place.
func SortRecords(records []PriceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Ticker != records[j].Ticker {
			return records[i].Ticker < records[j].Ticker
		}
		return records[i].Date.Before(records[j].Date)
	})
}

// ExtractionUnit is the atomic unit of work: one ticker on one date.
type ExtractionUnit struct {
	Ticker string
	Date   Date
}

func (u ExtractionUnit) String() string {
	return u.Ticker + "/" + u.Date.String()
}

// ExpandUnits turns a (tickers, inclusive date range) request into the
// ordered set of extraction units: ticker ascending, date ascending.
func ExpandUnits(tickers []string, start, end Date) []ExtractionUnit {
	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)

	dates := DatesBetween(start, end)
	units := make([]ExtractionUnit, 0, len(sorted)*len(dates))
	for _, ticker := range sorted {
		for _, date := range dates {
			units = append(units, ExtractionUnit{Ticker: ticker, Date: date})
		}
	}
	return units
}

// MasterRecord holds the reference attributes for one ticker.
type MasterRecord struct {
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector"`
	Currency    string `json:"currency"`
}
