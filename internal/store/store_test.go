package store

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

func row(ticker string, yield float64, qualifies bool) contracts.ScanResult {
	return contracts.ScanResult{
		RawQuote: contracts.RawQuote{
			Ticker:        ticker,
			Price:         10,
			DividendYield: contracts.Float(yield),
		},
		DerivedMetrics: contracts.DerivedMetrics{PayoutRatio: contracts.Float(50), Sustainable: qualifies},
		Qualifies:      qualifies,
	}
}

func daily(market, date string, rows ...contracts.ScanResult) *contracts.DailyResult {
	for i := range rows {
		rows[i].Market, rows[i].ScanDate = market, date
	}
	return &contracts.DailyResult{
		RunID:        "run-" + market,
		Market:       market,
		ScanDate:     date,
		ScannedAt:    time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC),
		TotalTickers: len(rows),
		Results:      rows,
	}
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), logger.Nop()).WithLockTimeout(2 * time.Second)
}

func TestWriteDailyResult_SortedAndReadable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := daily("demo", "2026-03-02", row("C", 9, false), row("A", 6, true), row("B", 7, false))
	d.Skipped = []contracts.SkippedTicker{{Ticker: "Z", Kind: "provider_error", Error: "timeout"}}
	require.NoError(t, s.WriteDailyResult(ctx, d))

	got, err := s.ReadDaily("demo", "2026-03-02")
	require.NoError(t, err)

	tickers := []string{}
	for _, r := range got.Results {
		tickers = append(tickers, r.Ticker)
	}
	assert.Equal(t, []string{"A", "B", "C"}, tickers)
	assert.Equal(t, 3, got.TotalResults)
	assert.Equal(t, 1, got.Qualifying)
	assert.Equal(t, 1, got.SkippedCount)
}

func TestWriteDailyResult_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteDailyResult(ctx, daily("demo", "2026-03-02", row("B", 7, false), row("A", 6, true))))
	first, err := s.ReadDaily("demo", "2026-03-02")
	require.NoError(t, err)

	// 같은 입력, 다른 완료 순서
	require.NoError(t, s.WriteDailyResult(ctx, daily("demo", "2026-03-02", row("A", 6, true), row("B", 7, false))))
	second, err := s.ReadDaily("demo", "2026-03-02")
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Qualifying, second.Qualifying)
}

func TestWriteDailyResult_EmptyResultIsValid(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteDailyResult(context.Background(), daily("demo", "2026-03-02")))

	data, err := os.ReadFile(s.DailyPath("demo", "2026-03-02"))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []interface{}{}, raw["results"])
}

func TestWriteDailyResult_FailureKeepsPreviousFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteDailyResult(ctx, daily("demo", "2026-03-02", row("A", 6, true))))
	before, err := os.ReadFile(s.DailyPath("demo", "2026-03-02"))
	require.NoError(t, err)

	// NaN 은 JSON 으로 인코딩할 수 없음 → 쓰기 실패
	bad := daily("demo", "2026-03-02", row("A", math.NaN(), true))
	err = s.WriteDailyResult(ctx, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrPersistence)

	after, err := os.ReadFile(s.DailyPath("demo", "2026-03-02"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWriteDailyResult_InvalidKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WriteDailyResult(ctx, daily("../x", "2026-03-02"))
	assert.ErrorIs(t, err, contracts.ErrPersistence)

	err = s.WriteDailyResult(ctx, daily("demo", "03/02/2026"))
	assert.ErrorIs(t, err, contracts.ErrPersistence)
}

func TestRefreshTopPicks_LatestQualifyingOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// 오래된 파일의 적격 종목 OLD 는 포함되면 안 됨
	require.NoError(t, s.WriteDailyResult(ctx, daily("us", "2026-03-01", row("OLD", 12, true), row("A", 6, true))))
	require.NoError(t, s.WriteDailyResult(ctx, daily("us", "2026-03-02", row("A", 6, true), row("B", 7, false))))
	require.NoError(t, s.WriteDailyResult(ctx, daily("eu", "2026-02-27", row("E", 5, true))))

	tp, err := s.RefreshTopPicks(ctx)
	require.NoError(t, err)

	require.Len(t, tp.Picks, 2)
	assert.Equal(t, "A", tp.Picks[0].Ticker)
	assert.Equal(t, "2026-03-02", tp.Picks[0].ScanDate)
	assert.Equal(t, "E", tp.Picks[1].Ticker)
	assert.Equal(t, "eu", tp.Picks[1].Market)

	for _, p := range tp.Picks {
		assert.True(t, p.Qualifies)
		assert.NotEqual(t, "OLD", p.Ticker)
	}

	assert.Equal(t, []contracts.TopPickSource{
		{Market: "eu", ScanDate: "2026-02-27"},
		{Market: "us", ScanDate: "2026-03-02"},
	}, tp.Sources)

	onDisk, err := s.ReadTopPicks()
	require.NoError(t, err)
	assert.Equal(t, tp.Total, onDisk.Total)
}

func TestRefreshTopPicks_DuplicateTickerAcrossMarkets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteDailyResult(ctx, daily("m1", "2026-03-02", row("X", 6, true))))
	require.NoError(t, s.WriteDailyResult(ctx, daily("m2", "2026-03-02", row("X", 8, true))))

	tp, err := s.RefreshTopPicks(ctx)
	require.NoError(t, err)

	require.Len(t, tp.Picks, 1)
	assert.Equal(t, "X", tp.Picks[0].Ticker)
	assert.Equal(t, "m2", tp.Picks[0].Market)
	assert.Equal(t, 8.0, *tp.Picks[0].DividendYield)
}

func TestRefreshTopPicks_FullReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteDailyResult(ctx, daily("us", "2026-03-01", row("GONE", 9, true))))
	_, err := s.RefreshTopPicks(ctx)
	require.NoError(t, err)

	// 다음 날 GONE 이 탈락
	require.NoError(t, s.WriteDailyResult(ctx, daily("us", "2026-03-02", row("GONE", 9, false), row("NEW", 5, true))))
	tp, err := s.RefreshTopPicks(ctx)
	require.NoError(t, err)

	require.Len(t, tp.Picks, 1)
	assert.Equal(t, "NEW", tp.Picks[0].Ticker)
}

func TestRefreshTopPicks_Limit(t *testing.T) {
	s := newTestStore(t).WithTopPicksLimit(2)
	ctx := context.Background()

	require.NoError(t, s.WriteDailyResult(ctx, daily("us", "2026-03-02", row("A", 5, true), row("B", 9, true), row("C", 7, true))))

	tp, err := s.RefreshTopPicks(ctx)
	require.NoError(t, err)
	require.Len(t, tp.Picks, 2)
	assert.Equal(t, "B", tp.Picks[0].Ticker)
	assert.Equal(t, "C", tp.Picks[1].Ticker)
}

func TestRefreshTopPicks_SkipsUnreadableLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteDailyResult(ctx, daily("us", "2026-03-01", row("A", 6, true))))
	require.NoError(t, os.WriteFile(s.DailyPath("us", "2026-03-02"), []byte("{broken"), 0o644))

	tp, err := s.RefreshTopPicks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tp.Picks, "must not fall back to an older date")
}

func TestRefreshTopPicks_ConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	// 두 store 인스턴스 = 두 프로세스 (flock 경로 공유)
	s1 := NewFileStore(dir, logger.Nop())
	s2 := NewFileStore(dir, logger.Nop())

	var wg sync.WaitGroup
	for i, s := range []*FileStore{s1, s2, s1, s2} {
		wg.Add(1)
		go func(i int, s *FileStore) {
			defer wg.Done()
			market := []string{"m1", "m2", "m3", "m4"}[i]
			assert.NoError(t, s.WriteDailyResult(ctx, daily(market, "2026-03-02", row("T"+market, 6, true))))
			_, err := s.RefreshTopPicks(ctx)
			assert.NoError(t, err)
		}(i, s)
	}
	wg.Wait()

	// 마지막 rebuild 는 모든 시장의 결과를 포함
	tp, err := s1.RefreshTopPicks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, tp.Total)

	onDisk, err := s2.ReadTopPicks()
	require.NoError(t, err)
	assert.Equal(t, 4, onDisk.Total)
}

func TestLatestDailyAndMarkets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LatestDaily("us")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.WriteDailyResult(ctx, daily("us", "2026-03-01", row("A", 6, true))))
	require.NoError(t, s.WriteDailyResult(ctx, daily("us", "2026-03-02", row("B", 6, true))))
	require.NoError(t, s.WriteDailyResult(ctx, daily("ftse_mib", "2026-03-02", row("ENI.MI", 6, true))))

	d, err := s.LatestDaily("us")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", d.ScanDate)

	m, err := s.Markets()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"us": "2026-03-02", "ftse_mib": "2026-03-02"}, m)

	_, err = s.ReadDaily("us", "2020-01-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseDailyName(t *testing.T) {
	tests := []struct {
		name       string
		wantMarket string
		wantDate   string
		ok         bool
	}{
		{"2026-03-02_sp500.json", "sp500", "2026-03-02", true},
		{"2026-03-02_ftse_mib.json", "ftse_mib", "2026-03-02", true},
		{"2026-13-02_sp500.json", "", "", false},
		{"top_picks.json", "", "", false},
		{"2026-03-02_sp500.json.tmp", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, d, ok := parseDailyName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.wantMarket, m)
			assert.Equal(t, tt.wantDate, d)
		})
	}
}

func TestRefreshTopPicks_LockHeld(t *testing.T) {
	s := NewFileStore(t.TempDir(), logger.Nop()).WithLockTimeout(150 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, s.WriteDailyResult(ctx, daily("demo", "2026-03-02", row("A", 6, true))))

	require.NoError(t, os.MkdirAll(filepath.Dir(s.TopPicksPath()), 0o755))
	held := flock.New(s.TopPicksPath() + ".lock")
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	_, err = s.RefreshTopPicks(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrPersistence))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotContains(t, err.Error(), "<nil>")
}
