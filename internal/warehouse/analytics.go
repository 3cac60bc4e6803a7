package warehouse

import (
	"context"
	"fmt"
	"time"
)

const (
	analyticsTable = "stock_prices_analysis"
	mastersTable   = "tickers"
)

// MissingMasters returns tickers present in the primary table that have no
// master reference entry. Their rows are excluded from the analytics
// rebuild rather than aborting it.
func (s *Store) MissingMasters(ctx context.Context) ([]string, error) {
	sql := fmt.Sprintf(`
		SELECT DISTINCT sp.ticker
		FROM %s sp
		LEFT JOIN %s m ON sp.ticker = m.ticker
		WHERE m.ticker IS NULL
		ORDER BY sp.ticker`, primaryTable, mastersTable)

	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, &AnalyticsError{Err: fmt.Errorf("query missing masters: %w", err)}
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, &AnalyticsError{Err: fmt.Errorf("scan missing master: %w", err)}
		}
		missing = append(missing, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, &AnalyticsError{Err: err}
	}
	return missing, nil
}

// RebuildAnalytics fully regenerates the denormalized analytics table from
// the primary table joined with master reference data. Replace semantics
// make it idempotent and self-healing after a prior partial failure.
func (s *Store) RebuildAnalytics(ctx context.Context) error {
	start := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return &AnalyticsError{Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", analyticsTable)); err != nil {
		return &AnalyticsError{Err: fmt.Errorf("drop analytics table: %w", err)}
	}

	if _, err := tx.Exec(ctx, buildAnalyticsSQL(analyticsTable, primaryTable, mastersTable)); err != nil {
		return &AnalyticsError{Err: fmt.Errorf("create analytics table: %w", err)}
	}

	if err := tx.Commit(ctx); err != nil {
		return &AnalyticsError{Err: fmt.Errorf("commit: %w", err)}
	}

	s.logger.Info("analytics table rebuilt",
		"table", analyticsTable,
		"duration", time.Since(start),
	)
	return nil
}

// buildAnalyticsSQL builds the regeneration query: master join plus moving
// averages, day-over-day change rate and an up-day flag. The inner join
// drops tickers without a master entry.
func buildAnalyticsSQL(target, prices, masters string) string {
	return fmt.Sprintf(`
		CREATE TABLE %s AS
		SELECT
			sp.ticker,
			m.company_name,
			m.sector_name,
			m.currency_code,
			sp.date,
			sp.close,
			sp.volume,
			ROUND(AVG(sp.close) OVER w5, 4)  AS ma5,
			ROUND(AVG(sp.close) OVER w25, 4) AS ma25,
			ROUND(AVG(sp.close) OVER w75, 4) AS ma75,
			ROUND(
				(sp.close - LAG(sp.close) OVER wd) / NULLIF(LAG(sp.close) OVER wd, 0),
				4
			) AS change_rate,
			CASE WHEN sp.close > LAG(sp.close) OVER wd THEN 1 ELSE 0 END AS is_win
		FROM %s sp
		JOIN %s m ON sp.ticker = m.ticker
		WINDOW
			wd  AS (PARTITION BY sp.ticker ORDER BY sp.date),
			w5  AS (PARTITION BY sp.ticker ORDER BY sp.date ROWS BETWEEN 4 PRECEDING AND CURRENT ROW),
			w25 AS (PARTITION BY sp.ticker ORDER BY sp.date ROWS BETWEEN 24 PRECEDING AND CURRENT ROW),
			w75 AS (PARTITION BY sp.ticker ORDER BY sp.date ROWS BETWEEN 74 PRECEDING AND CURRENT ROW)`,
		target, prices, masters)
}
