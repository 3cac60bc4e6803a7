package rawstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yamato-aoki/stockpipe/internal/model"
)

// WriteError wraps an object storage failure.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("raw store write %s: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer serializes canonical records and writes them to the object store.
type Writer struct {
	store  ObjectStore
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(store ObjectStore, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: store, logger: logger}
}

// Key returns the deterministic object key for one unit.
func Key(ticker string, date model.Date) string {
	return ticker + "/" + date.String() + ".ndjson"
}

// recordLine is the canonical NDJSON line shape. Prices render as
// fixed-precision strings so identical records always produce identical
// bytes.
type recordLine struct {
	Ticker   string `json:"ticker"`
	Date     string `json:"date"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   int64  `json:"volume"`
	Currency string `json:"currency"`
}

// Marshal renders records as canonical NDJSON, one object per line.
// Empty input yields an empty byte slice.
func Marshal(records []model.PriceRecord) ([]byte, error) {
	var buf bytes.Buffer
	for _, r := range records {
		line := recordLine{
			Ticker:   r.Ticker,
			Date:     r.Date.String(),
			Open:     r.Open.StringFixed(model.PricePlaces),
			High:     r.High.StringFixed(model.PricePlaces),
			Low:      r.Low.StringFixed(model.PricePlaces),
			Close:    r.Close.StringFixed(model.PricePlaces),
			Volume:   r.Volume,
			Currency: r.Currency,
		}
		encoded, err := json.Marshal(line)
		if err != nil {
			return nil, fmt.Errorf("marshal record %s/%s: %w", r.Ticker, r.Date, err)
		}
		buf.Write(encoded)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Write serializes records for one (ticker, date) and stores them under the
// deterministic key. Re-invocation with identical records is byte-identical
// and overwrite-safe. Empty input writes an empty object: "checked, no
// data" is distinguishable from "never extracted".
func (w *Writer) Write(ctx context.Context, ticker string, date model.Date, records []model.PriceRecord) (string, error) {
	key := Key(ticker, date)

	data, err := Marshal(records)
	if err != nil {
		return "", &WriteError{Key: key, Err: err}
	}

	if err := w.store.Put(ctx, key, data); err != nil {
		return "", &WriteError{Key: key, Err: err}
	}

	w.logger.Debug("raw object written",
		"key", key,
		"records", len(records),
		"bytes", len(data),
	)
	return key, nil
}
