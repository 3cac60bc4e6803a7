package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yamato-aoki/stockpipe/internal/model"
)

// operation is the closed set of things this binary can do. Each variant
// carries its own typed input instead of a stringly-typed mode payload.
type operation interface {
	name() string
}

// dailyOp extracts yesterday's prices for every master ticker.
type dailyOp struct{}

func (dailyOp) name() string { return "daily" }

// backfillOp extracts an explicit ticker set over an inclusive date range.
type backfillOp struct {
	tickers []string
	start   model.Date
	end     model.Date
}

func (backfillOp) name() string { return "backfill" }

// initMastersOp replaces the master reference tables from stored NDJSON.
type initMastersOp struct {
	prefix string
}

func (initMastersOp) name() string { return "init-masters" }

// parseOperation parses the subcommand and its flags.
func parseOperation(args []string) (operation, error) {
	if len(args) == 0 {
		return nil, errors.New("missing operation")
	}

	switch args[0] {
	case "daily":
		return dailyOp{}, nil

	case "backfill":
		fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
		tickers := fs.String("tickers", "", "comma-separated tickers (required)")
		startStr := fs.String("start", "", "start date YYYY-MM-DD (required)")
		endStr := fs.String("end", "", "end date YYYY-MM-DD (defaults to start)")
		if err := fs.Parse(args[1:]); err != nil {
			return nil, err
		}

		if *tickers == "" {
			return nil, errors.New("backfill: -tickers is required")
		}
		if *startStr == "" {
			return nil, errors.New("backfill: -start is required")
		}

		start, err := model.ParseDate(*startStr)
		if err != nil {
			return nil, fmt.Errorf("backfill: %w", err)
		}

		end := start
		if *endStr != "" {
			end, err = model.ParseDate(*endStr)
			if err != nil {
				return nil, fmt.Errorf("backfill: %w", err)
			}
		}
		if end.Before(start) {
			return nil, fmt.Errorf("backfill: end %s is before start %s", end, start)
		}

		return backfillOp{
			tickers: splitTickers(*tickers),
			start:   start,
			end:     end,
		}, nil

	case "init-masters":
		fs := flag.NewFlagSet("init-masters", flag.ContinueOnError)
		prefix := fs.String("prefix", "master/", "object key prefix holding master NDJSON files")
		if err := fs.Parse(args[1:]); err != nil {
			return nil, err
		}
		return initMastersOp{prefix: *prefix}, nil

	default:
		return nil, fmt.Errorf("unknown operation %q", args[0])
	}
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: etl [-config path] <operation> [flags]

operations:
  daily                                  extract yesterday for all master tickers
  backfill -tickers A,B -start D [-end D] extract a ticker set over a date range
  init-masters [-prefix master/]         load master reference from stored NDJSON
`)
}
