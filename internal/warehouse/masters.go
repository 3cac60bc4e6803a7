package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yamato-aoki/stockpipe/internal/model"
)

// ListTickers returns every master ticker, sorted.
func (s *Store) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx,
		fmt.Sprintf("SELECT ticker FROM %s ORDER BY ticker", mastersTable))
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// ReplaceMasters swaps the master table contents for the given records in
// one transaction.
func (s *Store) ReplaceMasters(ctx context.Context, masters []model.MasterRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE %s", mastersTable)); err != nil {
		return fmt.Errorf("truncate masters: %w", err)
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s (ticker, company_name, sector_name, currency_code)
		 VALUES ($1, $2, $3, $4)`, mastersTable)

	batch := &pgx.Batch{}
	for _, m := range masters {
		batch.Queue(insert, m.Ticker, m.CompanyName, m.Sector, m.Currency)
	}

	results := tx.SendBatch(ctx, batch)
	for range masters {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert master: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("master reference replaced", "records", len(masters))
	return nil
}
