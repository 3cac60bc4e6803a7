package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/yamato-aoki/stockpipe/internal/config"
	"github.com/yamato-aoki/stockpipe/internal/model"
	"github.com/yamato-aoki/stockpipe/internal/notify"
	"github.com/yamato-aoki/stockpipe/internal/pipeline"
	"github.com/yamato-aoki/stockpipe/internal/provider"
	"github.com/yamato-aoki/stockpipe/internal/rawstore"
	"github.com/yamato-aoki/stockpipe/internal/runlog"
	"github.com/yamato-aoki/stockpipe/internal/version"
	"github.com/yamato-aoki/stockpipe/internal/warehouse"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	configPath := flag.String("config", "configs/etl.local.yaml", "path to config file")
	flag.CommandLine.Parse(args)

	op, err := parseOperation(flag.CommandLine.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		return 2
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting etl",
		"version", version.String(),
		"config", *configPath,
		"operation", op.name(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	pool, err := warehouse.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to warehouse", "error", err)
		return 1
	}
	defer pool.Close()

	store := rawstore.NewFSStore(cfg.Storage.Root)
	wh := warehouse.NewStore(pool, logger)

	client := provider.NewClient(
		cfg.Provider.BaseURL,
		provider.WithAPIKey(cfg.Provider.APIKey),
		provider.WithTimeout(cfg.Provider.Timeout),
		provider.WithLogger(logger),
	)

	notifier := notify.New(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout, logger)

	return dispatch(ctx, op, cfg, client, store, wh, notifier, logger)
}

func dispatch(
	ctx context.Context,
	op operation,
	cfg *config.Config,
	client *provider.Client,
	store rawstore.ObjectStore,
	wh *warehouse.Store,
	notifier *notify.Notifier,
	logger *slog.Logger,
) int {
	switch op := op.(type) {
	case dailyOp:
		tickers, err := wh.ListTickers(ctx)
		if err != nil {
			logger.Error("failed to list master tickers", "error", err)
			return 1
		}
		date := model.DateOf(time.Now().UTC().AddDate(0, 0, -1))
		req := pipeline.Request{Operation: "daily", Tickers: tickers, Start: date, End: date}
		return runPipeline(ctx, cfg, client, store, wh, notifier, logger, req)

	case backfillOp:
		req := pipeline.Request{
			Operation: "backfill",
			Tickers:   op.tickers,
			Start:     op.start,
			End:       op.end,
		}
		return runPipeline(ctx, cfg, client, store, wh, notifier, logger, req)

	case initMastersOp:
		recorder := runlog.NewRecorder(logger, runlog.NewSlogSink(logger))
		runner := pipeline.NewRunner(cfg.Pipeline, client, rawstore.NewWriter(store, logger), wh, notifier, store, recorder, logger)
		if err := runner.InitMasters(ctx, op.prefix); err != nil {
			logger.Error("master initialization failed", "error", err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "unknown operation %T\n", op)
		return 2
	}
}

func runPipeline(
	ctx context.Context,
	cfg *config.Config,
	client *provider.Client,
	store rawstore.ObjectStore,
	wh *warehouse.Store,
	notifier *notify.Notifier,
	logger *slog.Logger,
	req pipeline.Request,
) int {
	req.RunID = uuid.New()

	recorder := runlog.NewRecorder(logger,
		runlog.NewSlogSink(logger),
		runlog.NewArchiveSink(store, req.Start, req.RunID),
	)

	runner := pipeline.NewRunner(
		cfg.Pipeline,
		client,
		rawstore.NewWriter(store, logger),
		wh,
		notifier,
		store,
		recorder,
		logger,
	)

	result := runner.Run(ctx, req)
	if result.Classify() != model.StatusSuccess {
		return 1
	}
	return 0
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
