package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yamato-aoki/stockpipe/internal/model"
)

const (
	primaryTable = "stock_prices"
	stagingTable = "stock_prices_staging"
)

var (
	mergeKeyCols   = []string{"ticker", "date"}
	mergeValueCols = []string{"open", "high", "low", "close", "volume", "currency"}
)

// Store executes warehouse operations over a pgx pool.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store.
func NewStore(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// MergeDailyPrices upserts one staging batch into the primary price table.
// Rows matching (ticker, date) are replaced; absent rows are inserted. The
// whole batch stages into a transaction-scoped temp table and commits
// through a single merge statement, so a failure applies nothing.
func (s *Store) MergeDailyPrices(ctx context.Context, batch []model.PriceRecord) error {
	if len(batch) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return &LoadError{Batch: len(batch), Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, buildStagingDDL(stagingTable)); err != nil {
		return &LoadError{Batch: len(batch), Err: fmt.Errorf("create staging table: %w", err)}
	}

	if err := s.stageBatch(ctx, tx, batch); err != nil {
		return &LoadError{Batch: len(batch), Err: err}
	}

	sql := buildMergeSQL(primaryTable, stagingTable, mergeKeyCols, mergeValueCols)
	if _, err := tx.Exec(ctx, sql); err != nil {
		return &LoadError{Batch: len(batch), Err: fmt.Errorf("merge: %w", err)}
	}

	if err := tx.Commit(ctx); err != nil {
		return &LoadError{Batch: len(batch), Err: fmt.Errorf("commit: %w", err)}
	}

	s.logger.Debug("merged batch",
		"records", len(batch),
		"duration", time.Since(start),
	)
	return nil
}

// stageBatch inserts records into the staging table with a pgx batch.
// Prices travel as fixed-precision text and land in numeric columns.
func (s *Store) stageBatch(ctx context.Context, tx pgx.Tx, records []model.PriceRecord) error {
	insert := fmt.Sprintf(
		`INSERT INTO %s (ticker, date, open, high, low, close, volume, currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, stagingTable)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insert,
			r.Ticker,
			r.Date.String(),
			r.Open.StringFixed(model.PricePlaces),
			r.High.StringFixed(model.PricePlaces),
			r.Low.StringFixed(model.PricePlaces),
			r.Close.StringFixed(model.PricePlaces),
			r.Volume,
			r.Currency,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("stage record: %w", err)
		}
	}

	return results.Close()
}

// buildStagingDDL returns the DDL for the transaction-scoped staging table.
func buildStagingDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TEMP TABLE %s (
			ticker   text NOT NULL,
			date     date NOT NULL,
			open     numeric(18,4) NOT NULL,
			high     numeric(18,4) NOT NULL,
			low      numeric(18,4) NOT NULL,
			close    numeric(18,4) NOT NULL,
			volume   bigint NOT NULL,
			currency text NOT NULL,
			PRIMARY KEY (ticker, date)
		) ON COMMIT DROP`, table)
}

// buildMergeSQL builds the atomic merge statement: insert every staged row,
// replacing the target row when the composite key already exists.
func buildMergeSQL(target, staging string, keyCols, valueCols []string) string {
	allCols := append(append([]string{}, keyCols...), valueCols...)
	colList := strings.Join(allCols, ", ")

	updates := make([]string, len(valueCols))
	for i, col := range valueCols {
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}

	return fmt.Sprintf(`
		INSERT INTO %s (%s, updated_at)
		SELECT %s, now() FROM %s
		ON CONFLICT (%s) DO UPDATE SET %s, updated_at = now()`,
		target, colList,
		colList, staging,
		strings.Join(keyCols, ", "),
		strings.Join(updates, ", "),
	)
}
