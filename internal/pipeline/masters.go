package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yamato-aoki/stockpipe/internal/model"
)

// InitMasters loads master reference NDJSON objects from the raw store and
// replaces the warehouse master table with their contents. Objects are read
// under the given key prefix, one JSON master record per line.
func (r *Runner) InitMasters(ctx context.Context, prefix string) error {
	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list master objects: %w", err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("no master objects under %q", prefix)
	}

	var masters []model.MasterRecord
	seen := make(map[string]bool)

	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read master object %s: %w", key, err)
		}

		records, err := parseMasterLines(data)
		if err != nil {
			return fmt.Errorf("parse master object %s: %w", key, err)
		}

		for _, m := range records {
			if seen[m.Ticker] {
				continue
			}
			seen[m.Ticker] = true
			masters = append(masters, m)
		}
	}

	if err := r.warehouse.ReplaceMasters(ctx, masters); err != nil {
		return fmt.Errorf("replace masters: %w", err)
	}

	r.logger.Info("master reference initialized",
		"objects", len(keys),
		"records", len(masters),
	)
	return nil
}

func parseMasterLines(data []byte) ([]model.MasterRecord, error) {
	var records []model.MasterRecord

	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var m model.MasterRecord
		if err := json.Unmarshal(text, &m); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if m.Ticker == "" {
			return nil, fmt.Errorf("line %d: missing ticker", line)
		}
		records = append(records, m)
	}

	return records, scanner.Err()
}
