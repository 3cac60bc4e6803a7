package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validRecord() PriceRecord {
	return PriceRecord{
		Ticker:   "AAPL",
		Date:     NewDate(2024, time.March, 15),
		Open:     decimal.NewFromFloat(172.50),
		High:     decimal.NewFromFloat(175.00),
		Low:      decimal.NewFromFloat(171.25),
		Close:    decimal.NewFromFloat(174.80),
		Volume:   51234567,
		Currency: "USD",
	}
}

func TestPriceRecordValidate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("valid record failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*PriceRecord)
	}{
		{"empty ticker", func(r *PriceRecord) { r.Ticker = "" }},
		{"zero date", func(r *PriceRecord) { r.Date = Date{} }},
		{"negative volume", func(r *PriceRecord) { r.Volume = -1 }},
		{"negative open", func(r *PriceRecord) { r.Open = decimal.NewFromInt(-1) }},
		{"high below low", func(r *PriceRecord) {
			r.High = decimal.NewFromInt(100)
			r.Low = decimal.NewFromInt(200)
			r.Open = decimal.NewFromInt(150)
			r.Close = decimal.NewFromInt(150)
		}},
		{"open above high", func(r *PriceRecord) { r.Open = decimal.NewFromInt(999) }},
		{"close below low", func(r *PriceRecord) { r.Close = decimal.NewFromInt(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("Validate succeeded, want error")
			}
		})
	}
}

func TestPriceRecordValidateZeroPrices(t *testing.T) {
	// An all-zero price day (halted listing) is structurally valid.
	r := validRecord()
	r.Open = decimal.Zero
	r.High = decimal.Zero
	r.Low = decimal.Zero
	r.Close = decimal.Zero
	r.Volume = 0
	if err := r.Validate(); err != nil {
		t.Errorf("zero-price record failed validation: %v", err)
	}
}

func TestSortRecords(t *testing.T) {
	mar15 := NewDate(2024, time.March, 15)
	mar14 := NewDate(2024, time.March, 14)

	records := []PriceRecord{
		{Ticker: "MSFT", Date: mar14},
		{Ticker: "AAPL", Date: mar15},
		{Ticker: "AAPL", Date: mar14},
		{Ticker: "MSFT", Date: mar15},
	}
	SortRecords(records)

	want := []struct {
		ticker string
		date   Date
	}{
		{"AAPL", mar14},
		{"AAPL", mar15},
		{"MSFT", mar14},
		{"MSFT", mar15},
	}
	for i, w := range want {
		if records[i].Ticker != w.ticker || records[i].Date != w.date {
			t.Errorf("records[%d] = %s/%v, want %s/%v",
				i, records[i].Ticker, records[i].Date, w.ticker, w.date)
		}
	}
}

func TestExpandUnits(t *testing.T) {
	start := NewDate(2024, time.March, 14)
	end := NewDate(2024, time.March, 15)

	units := ExpandUnits([]string{"MSFT", "AAPL"}, start, end)
	want := []ExtractionUnit{
		{Ticker: "AAPL", Date: start},
		{Ticker: "AAPL", Date: end},
		{Ticker: "MSFT", Date: start},
		{Ticker: "MSFT", Date: end},
	}

	if len(units) != len(want) {
		t.Fatalf("ExpandUnits returned %d units, want %d", len(units), len(want))
	}
	for i := range want {
		if units[i] != want[i] {
			t.Errorf("units[%d] = %v, want %v", i, units[i], want[i])
		}
	}
}

func TestExpandUnitsEmpty(t *testing.T) {
	d := NewDate(2024, time.March, 15)
	if units := ExpandUnits(nil, d, d); len(units) != 0 {
		t.Errorf("ExpandUnits(nil tickers) = %v, want empty", units)
	}
}

func TestExtractionUnitString(t *testing.T) {
	u := ExtractionUnit{Ticker: "AAPL", Date: NewDate(2024, time.March, 15)}
	if got := u.String(); got != "AAPL/2024-03-15" {
		t.Errorf("String = %q, want %q", got, "AAPL/2024-03-15")
	}
}
