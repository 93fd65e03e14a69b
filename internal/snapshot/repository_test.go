package snapshot

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/pkg/config"
	"github.com/wonny/dividend-seeker/pkg/database"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

func sampleDaily() *contracts.DailyResult {
	d := &contracts.DailyResult{
		RunID:        "run-1",
		Market:       "demo",
		ScanDate:     "2026-03-02",
		CriteriaHash: "abc",
		TotalTickers: 3,
		Skipped:      []contracts.SkippedTicker{{Ticker: "C", Kind: "provider_error"}},
		Results: []contracts.ScanResult{
			{
				RawQuote: contracts.RawQuote{
					Ticker: "A", Price: 10, Currency: "USD",
					DividendYield: contracts.Float(6), DividendRate: contracts.Float(0.6),
					ExDividendDate: "2026-04-01",
				},
				DerivedMetrics: contracts.DerivedMetrics{PayoutRatio: contracts.Float(50), Sustainable: true},
				Qualifies:      true,
			},
			{
				RawQuote: contracts.RawQuote{
					Ticker: "B", Price: 20,
					DividendYield:  contracts.Float(7),
					ExDividendDate: "not-a-date",
				},
				DerivedMetrics: contracts.DerivedMetrics{PayoutRatio: contracts.Float(120)},
			},
		},
	}
	d.Normalize()
	return d
}

func TestBuildBatch(t *testing.T) {
	batch, err := buildBatch(sampleDaily())
	require.NoError(t, err)

	// A: stock + snapshot + dividend, B: stock + snapshot (bad ex-date), scans row
	require.Equal(t, 6, batch.Len())

	queries := batch.QueuedQueries
	assert.Equal(t, upsertStockSQL, queries[0].SQL)
	assert.Equal(t, upsertSnapshotSQL, queries[1].SQL)
	assert.Equal(t, upsertDividendSQL, queries[2].SQL)
	assert.Equal(t, upsertStockSQL, queries[3].SQL)
	assert.Equal(t, upsertSnapshotSQL, queries[4].SQL)
	assert.Equal(t, insertScanSQL, queries[5].SQL)

	snap := queries[1].Arguments
	assert.Equal(t, "A", snap[0])
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), snap[1])
	assert.Equal(t, "demo", snap[2])
	assert.Equal(t, true, snap[13])

	scan := queries[5].Arguments
	assert.Equal(t, "run-1", scan[0])
	assert.Equal(t, 2, scan[3])
	assert.Equal(t, 1, scan[4])
	assert.Equal(t, 1, scan[5])
}

func TestBuildBatch_InvalidDate(t *testing.T) {
	d := sampleDaily()
	d.ScanDate = "03/02/2026"

	_, err := buildBatch(d)
	assert.Error(t, err)
}

// Integration: requires DATABASE_URL
func TestRepository_SyncDaily(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, &config.Config{Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1}})
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db, logger.Nop())
	require.NoError(t, repo.EnsureSchema(ctx))

	daily := sampleDaily()
	daily.Market = "it_snapshot"
	require.NoError(t, repo.SyncDaily(ctx, daily))
	// 재동기화도 성공해야 함 (upsert)
	require.NoError(t, repo.SyncDaily(ctx, daily))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Stocks, 2)
	assert.GreaterOrEqual(t, stats.Snapshots, 2)
}
