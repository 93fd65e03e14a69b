package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dividend-seeker/internal/api/handlers"
	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/store"
	"github.com/wonny/dividend-seeker/pkg/database"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

func row(market, date, ticker string, yield, payout, discount float64, qualifies bool) contracts.ScanResult {
	return contracts.ScanResult{
		Market:   market,
		ScanDate: date,
		RawQuote: contracts.RawQuote{
			Ticker:        ticker,
			Price:         10,
			DividendYield: contracts.Float(yield),
		},
		DerivedMetrics: contracts.DerivedMetrics{
			PayoutRatio:      contracts.Float(payout),
			DiscountFromHigh: contracts.Float(discount),
			Sustainable:      payout <= 100,
		},
		Qualifies: qualifies,
	}
}

func seedStore(t *testing.T) *store.FileStore {
	t.Helper()
	ctx := context.Background()
	s := store.NewFileStore(t.TempDir(), logger.Nop())

	dailies := []*contracts.DailyResult{
		{Market: "sp500", ScanDate: "2026-03-01", Results: []contracts.ScanResult{
			row("sp500", "2026-03-01", "OLD", 9, 50, 1, true),
		}},
		{Market: "sp500", ScanDate: "2026-03-02", Results: []contracts.ScanResult{
			row("sp500", "2026-03-02", "A", 6, 50, 10, true),
			row("sp500", "2026-03-02", "B", 7, 120, 30, false),
			row("sp500", "2026-03-02", "L", 2, 40, 5, false),
		}},
		{Market: "dax40", ScanDate: "2026-03-02", Results: []contracts.ScanResult{
			row("dax40", "2026-03-02", "X", 8, 80, 20, true),
		}},
	}
	for _, d := range dailies {
		require.NoError(t, s.WriteDailyResult(ctx, d))
	}
	_, err := s.RefreshTopPicks(ctx)
	require.NoError(t, err)
	return s
}

func newTestRouter(reader handlers.ResultReader, db handlers.DBChecker) http.Handler {
	log := logger.Nop()
	return NewRouter(NewHandlers(reader, db, log), log)
}

func get(t *testing.T, h http.Handler, path string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func tickers(rows []contracts.ScanResult) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Ticker
	}
	return out
}

func TestHealth(t *testing.T) {
	h := newTestRouter(seedStore(t), nil)

	var body map[string]interface{}
	require.Equal(t, http.StatusOK, get(t, h, "/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["database"])
}

type downDB struct{}

func (downDB) HealthCheck(ctx context.Context) database.HealthStatus {
	return database.HealthStatus{Error: "connection refused"}
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := newTestRouter(seedStore(t), downDB{})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health", nil))
}

func TestMarkets(t *testing.T) {
	h := newTestRouter(seedStore(t), nil)

	var body struct {
		Data []handlers.MarketSummary `json:"data"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/api/markets", &body))
	assert.Equal(t, []handlers.MarketSummary{
		{Market: "dax40", LatestScan: "2026-03-02"},
		{Market: "sp500", LatestScan: "2026-03-02"},
	}, body.Data)
}

func TestResults(t *testing.T) {
	h := newTestRouter(seedStore(t), nil)

	var latest contracts.DailyResult
	require.Equal(t, http.StatusOK, get(t, h, "/api/results/sp500", &latest))
	assert.Equal(t, "2026-03-02", latest.ScanDate)
	assert.Equal(t, []string{"A", "B", "L"}, tickers(latest.Results))

	var older contracts.DailyResult
	require.Equal(t, http.StatusOK, get(t, h, "/api/results/sp500?date=2026-03-01", &older))
	assert.Equal(t, []string{"OLD"}, tickers(older.Results))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/results/sp500?date=2020-01-01", nil))
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/results/ftse_mib", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/results/sp500?date=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/results/SP..500", nil))
}

func TestTopPicks(t *testing.T) {
	h := newTestRouter(seedStore(t), nil)

	var tp contracts.TopPicks
	require.Equal(t, http.StatusOK, get(t, h, "/api/top-picks", &tp))
	// OLD 는 이전 날짜이므로 제외
	assert.Equal(t, []string{"X", "A"}, tickers(tp.Picks))

	var top struct {
		Total int                    `json:"total"`
		Data  []contracts.ScanResult `json:"data"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/api/top/1", &top))
	assert.Equal(t, 2, top.Total)
	assert.Equal(t, []string{"X"}, tickers(top.Data))

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/top/0", nil))
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/top/abc", nil))
}

func TestTopPicks_NotBuilt(t *testing.T) {
	h := newTestRouter(store.NewFileStore(t.TempDir(), logger.Nop()), nil)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/top-picks", nil))
}

func TestStocks(t *testing.T) {
	h := newTestRouter(seedStore(t), nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"default min yield 5", "", []string{"X", "B", "A"}},
		{"all yields", "?min_yield=0", []string{"X", "B", "A", "L"}},
		{"market filter", "?market=SP500", []string{"B", "A"}},
		{"sustainable only", "?sustainable=true", []string{"X", "A"}},
		{"sort by discount", "?sort=discount", []string{"B", "X", "A"}},
		{"limit", "?limit=1", []string{"X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []contracts.ScanResult
			require.Equal(t, http.StatusOK, get(t, h, "/api/stocks"+tt.query, &rows))
			assert.Equal(t, tt.want, tickers(rows))
		})
	}

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/stocks?sort=score", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/stocks?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/stocks?min_yield=abc", nil))
}

func TestStock(t *testing.T) {
	h := newTestRouter(seedStore(t), nil)

	var detail handlers.StockDetail
	require.Equal(t, http.StatusOK, get(t, h, "/api/stock/x", &detail))
	assert.Equal(t, "X", detail.Current.Ticker)
	assert.Equal(t, "dax40", detail.Current.Market)
	assert.True(t, detail.TopPick)

	require.Equal(t, http.StatusOK, get(t, h, "/api/stock/B", &detail))
	assert.False(t, detail.TopPick)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/stock/OLD", nil))
}

func TestStats(t *testing.T) {
	h := newTestRouter(seedStore(t), nil)

	var s handlers.Stats
	require.Equal(t, http.StatusOK, get(t, h, "/api/stats", &s))
	assert.Equal(t, 2, s.TotalStocks)
	assert.Equal(t, 7.0, s.AvgYield)
	assert.Equal(t, 8.0, s.MaxYield)
	assert.Equal(t, 6.0, s.MinYield)
	assert.Equal(t, 2, s.MarketsCount)
	assert.Equal(t, 4, s.Scanned)
	require.NotNil(t, s.LastScan)
	assert.Equal(t, "2026-03-02", *s.LastScan)
}

func TestStats_Empty(t *testing.T) {
	h := newTestRouter(store.NewFileStore(t.TempDir(), logger.Nop()), nil)

	var s handlers.Stats
	require.Equal(t, http.StatusOK, get(t, h, "/api/stats", &s))
	assert.Zero(t, s.TotalStocks)
	assert.Nil(t, s.LastScan)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/", nil))
}
