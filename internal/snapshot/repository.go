package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/pkg/database"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

const (
	upsertStockSQL = `
		INSERT INTO stocks (ticker, name, sector, industry, currency, market, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			currency = EXCLUDED.currency,
			market = COALESCE(EXCLUDED.market, stocks.market),
			updated_at = now()`

	upsertSnapshotSQL = `
		INSERT INTO snapshots (
			ticker, scan_date, market, price, dividend_yield, dividend_rate,
			payout_ratio, pe_ratio, market_cap, week_52_high, week_52_low,
			discount_from_high, sustainable, qualifies
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (ticker, scan_date) DO UPDATE SET
			market = EXCLUDED.market,
			price = EXCLUDED.price,
			dividend_yield = EXCLUDED.dividend_yield,
			dividend_rate = EXCLUDED.dividend_rate,
			payout_ratio = EXCLUDED.payout_ratio,
			pe_ratio = EXCLUDED.pe_ratio,
			market_cap = EXCLUDED.market_cap,
			week_52_high = EXCLUDED.week_52_high,
			week_52_low = EXCLUDED.week_52_low,
			discount_from_high = EXCLUDED.discount_from_high,
			sustainable = EXCLUDED.sustainable,
			qualifies = EXCLUDED.qualifies`

	upsertDividendSQL = `
		INSERT INTO dividends (ticker, ex_date, amount, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, ex_date) DO UPDATE SET
			amount = COALESCE(EXCLUDED.amount, dividends.amount),
			currency = COALESCE(EXCLUDED.currency, dividends.currency)`

	insertScanSQL = `
		INSERT INTO scans (run_id, market, scan_date, total_scanned, candidates_found, skipped, criteria_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// Repository mirrors persisted daily results into PostgreSQL
// ⭐ SSOT: JSON 결과 → DB 동기화는 이 저장소에서만
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a snapshot repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithComponent("snapshot"),
	}
}

// SyncDaily upserts every row of a daily result in one transaction
// Re-syncing the same (market, date) overwrites snapshots; only the scans log grows.
func (r *Repository) SyncDaily(ctx context.Context, daily *contracts.DailyResult) error {
	batch, err := buildBatch(daily)
	if err != nil {
		return err
	}

	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("sync %s/%s statement %d: %w", daily.Market, daily.ScanDate, i, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return err
	}

	r.logger.WithFields(map[string]interface{}{
		"market":    daily.Market,
		"scan_date": daily.ScanDate,
		"rows":      len(daily.Results),
	}).Info("Daily result synced to database")

	return nil
}

// buildBatch queues the statements for one daily result
// Per row: stock upsert, snapshot upsert, dividend upsert (only with an ex-date). Then one scans row.
func buildBatch(daily *contracts.DailyResult) (*pgx.Batch, error) {
	scanDate, err := time.Parse(contracts.DateLayout, daily.ScanDate)
	if err != nil {
		return nil, fmt.Errorf("invalid scan date %q: %w", daily.ScanDate, err)
	}

	batch := &pgx.Batch{}
	for _, row := range daily.Results {
		batch.Queue(upsertStockSQL,
			row.Ticker, row.Name, row.Sector, row.Industry, row.Currency, daily.Market)

		batch.Queue(upsertSnapshotSQL,
			row.Ticker, scanDate, daily.Market, row.Price, row.DividendYield, row.DividendRate,
			row.PayoutRatio, row.TrailingPE, row.MarketCap, row.FiftyTwoWeekHigh, row.FiftyTwoWeekLow,
			row.DiscountFromHigh, row.Sustainable, row.Qualifies)

		if row.ExDividendDate != "" {
			exDate, err := time.Parse(contracts.DateLayout, row.ExDividendDate)
			if err != nil {
				// 잘못된 배당락일은 배당 행만 건너뜀
				continue
			}
			batch.Queue(upsertDividendSQL, row.Ticker, exDate, row.DividendRate, row.Currency)
		}
	}

	batch.Queue(insertScanSQL,
		daily.RunID, daily.Market, scanDate, len(daily.Results), daily.Qualifying,
		daily.SkippedCount, daily.CriteriaHash)

	return batch, nil
}

// TopRow is one entry of the latest-yield leaderboard in Stats
type TopRow struct {
	Ticker        string  `json:"ticker"`
	Market        string  `json:"market"`
	DividendYield float64 `json:"dividend_yield"`
	Qualifies     bool    `json:"qualifies"`
}

// Stats summarizes the snapshot database
type Stats struct {
	Stocks            int      `json:"stocks"`
	Snapshots         int      `json:"snapshots"`
	ScanDays          int      `json:"scan_days"`
	UpcomingDividends int      `json:"upcoming_dividends"`
	Top               []TopRow `json:"top"`
}

// Stats returns table counts and the top 5 yields of the latest scan date
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM stocks),
			(SELECT COUNT(*) FROM snapshots),
			(SELECT COUNT(DISTINCT scan_date) FROM snapshots),
			(SELECT COUNT(*) FROM dividends WHERE ex_date >= CURRENT_DATE)`,
	).Scan(&s.Stocks, &s.Snapshots, &s.ScanDays, &s.UpcomingDividends)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT ticker, market, dividend_yield, qualifies
		FROM snapshots
		WHERE scan_date = (SELECT MAX(scan_date) FROM snapshots)
		  AND dividend_yield IS NOT NULL
		ORDER BY dividend_yield DESC, ticker
		LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("query top yields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t TopRow
		if err := rows.Scan(&t.Ticker, &t.Market, &t.DividendYield, &t.Qualifies); err != nil {
			return nil, err
		}
		s.Top = append(s.Top, t)
	}

	return &s, rows.Err()
}
