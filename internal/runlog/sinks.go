package runlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/yamato-aoki/stockpipe/internal/model"
	"github.com/yamato-aoki/stockpipe/internal/rawstore"
)

// SlogSink writes events to the structured log stream.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink over the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Record(_ context.Context, ev Event) error {
	attrs := []any{
		"run_id", ev.RunID,
		"step", ev.Step,
		"outcome", ev.Outcome,
	}
	if ev.Ticker != "" {
		attrs = append(attrs, "ticker", ev.Ticker, "date", ev.Date)
	}
	if ev.Error != "" {
		attrs = append(attrs, "error", ev.Error)
	}

	if ev.Outcome == OutcomeFailed {
		s.logger.Warn("pipeline step", attrs...)
	} else {
		s.logger.Info("pipeline step", attrs...)
	}
	return nil
}

func (s *SlogSink) Flush(context.Context) error {
	return nil
}

// ArchiveSink buffers events and writes them as one NDJSON object per run,
// keyed by run date and run ID.
type ArchiveSink struct {
	store rawstore.ObjectStore
	key   string

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewArchiveSink creates a sink archiving under logs/{run-date}_{run-id}.ndjson.
func NewArchiveSink(store rawstore.ObjectStore, runDate model.Date, runID uuid.UUID) *ArchiveSink {
	return &ArchiveSink{
		store: store,
		key:   fmt.Sprintf("logs/%s_%s.ndjson", runDate, runID),
	}
}

// Key returns the archive object key.
func (s *ArchiveSink) Key() string {
	return s.key
}

func (s *ArchiveSink) Record(_ context.Context, ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(line)
	s.buf.WriteByte('\n')
	return nil
}

func (s *ArchiveSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	data := append([]byte(nil), s.buf.Bytes()...)
	s.mu.Unlock()

	if err := s.store.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("archive run log: %w", err)
	}
	return nil
}
