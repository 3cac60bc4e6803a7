package rawstore

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yamato-aoki/stockpipe/internal/model"
)

func testRecord() model.PriceRecord {
	return model.PriceRecord{
		Ticker:   "AAPL",
		Date:     model.NewDate(2024, time.March, 15),
		Open:     decimal.NewFromFloat(172.5),
		High:     decimal.NewFromFloat(175.0),
		Low:      decimal.NewFromFloat(171.25),
		Close:    decimal.NewFromFloat(174.8),
		Volume:   51234567,
		Currency: "USD",
	}
}

func TestKey(t *testing.T) {
	got := Key("AAPL", model.NewDate(2024, time.March, 5))
	if got != "AAPL/2024-03-05.ndjson" {
		t.Errorf("Key = %q, want %q", got, "AAPL/2024-03-05.ndjson")
	}
}

func TestMarshal(t *testing.T) {
	data, err := Marshal([]model.PriceRecord{testRecord()})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if decoded["ticker"] != "AAPL" {
		t.Errorf("ticker = %v, want AAPL", decoded["ticker"])
	}
	if decoded["date"] != "2024-03-15" {
		t.Errorf("date = %v, want 2024-03-15", decoded["date"])
	}
	// Prices are fixed-precision strings on the wire.
	if decoded["open"] != "172.5000" {
		t.Errorf("open = %v, want %q", decoded["open"], "172.5000")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	records := []model.PriceRecord{testRecord()}

	a, err := Marshal(records)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	b, err := Marshal(records)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical records produced different bytes")
	}
}

func TestMarshalEmpty(t *testing.T) {
	data, err := Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Marshal(nil) = %d bytes, want 0", len(data))
	}
}

func TestWriterWrite(t *testing.T) {
	store := NewMemStore()
	w := NewWriter(store, nil)

	key, err := w.Write(context.Background(), "AAPL", model.NewDate(2024, time.March, 15),
		[]model.PriceRecord{testRecord()})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if key != "AAPL/2024-03-15.ndjson" {
		t.Errorf("key = %q, want %q", key, "AAPL/2024-03-15.ndjson")
	}

	data, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("object does not end with a newline")
	}
}

func TestWriterWriteEmptyObject(t *testing.T) {
	store := NewMemStore()
	w := NewWriter(store, nil)

	// No data for the day still writes the object: it marks the date as
	// checked.
	key, err := w.Write(context.Background(), "AAPL", model.NewDate(2024, time.March, 16), nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("empty object was not stored: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("empty object has %d bytes, want 0", len(data))
	}
}

func TestWriterOverwriteIdempotent(t *testing.T) {
	store := NewMemStore()
	w := NewWriter(store, nil)
	ctx := context.Background()
	date := model.NewDate(2024, time.March, 15)
	records := []model.PriceRecord{testRecord()}

	key, err := w.Write(ctx, "AAPL", date, records)
	if err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	first, _ := store.Get(ctx, key)

	if _, err := w.Write(ctx, "AAPL", date, records); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	second, _ := store.Get(ctx, key)

	if !bytes.Equal(first, second) {
		t.Error("re-write of identical records changed object bytes")
	}
}
