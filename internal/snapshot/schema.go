package snapshot

import (
	"context"
	"fmt"
)

// schemaStatements creates the snapshot tables when they do not exist
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stocks (
		ticker     TEXT PRIMARY KEY,
		name       TEXT,
		sector     TEXT,
		industry   TEXT,
		currency   TEXT,
		market     TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		ticker             TEXT NOT NULL REFERENCES stocks (ticker),
		scan_date          DATE NOT NULL,
		market             TEXT NOT NULL,
		price              DOUBLE PRECISION,
		dividend_yield     DOUBLE PRECISION,
		dividend_rate      DOUBLE PRECISION,
		payout_ratio       DOUBLE PRECISION,
		pe_ratio           DOUBLE PRECISION,
		market_cap         DOUBLE PRECISION,
		week_52_high       DOUBLE PRECISION,
		week_52_low        DOUBLE PRECISION,
		discount_from_high DOUBLE PRECISION,
		sustainable        BOOLEAN NOT NULL DEFAULT false,
		qualifies          BOOLEAN NOT NULL DEFAULT false,
		PRIMARY KEY (ticker, scan_date)
	)`,
	`CREATE TABLE IF NOT EXISTS dividends (
		ticker   TEXT NOT NULL REFERENCES stocks (ticker),
		ex_date  DATE NOT NULL,
		amount   DOUBLE PRECISION,
		currency TEXT,
		PRIMARY KEY (ticker, ex_date)
	)`,
	`CREATE TABLE IF NOT EXISTS scans (
		id               BIGSERIAL PRIMARY KEY,
		run_id           TEXT NOT NULL,
		market           TEXT NOT NULL,
		scan_date        DATE NOT NULL,
		total_scanned    INTEGER NOT NULL,
		candidates_found INTEGER NOT NULL,
		skipped          INTEGER NOT NULL,
		criteria_hash    TEXT,
		synced_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_scan_date ON snapshots (scan_date)`,
}

// EnsureSchema creates missing tables; safe to call on every start
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
