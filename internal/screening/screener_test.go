package screening

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/criteria"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

func newTestScreener() *Screener {
	return NewScreener(criteria.Default().Screening, logger.Nop())
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		yield       *float64
		payout      *float64
		price       float64
		wantQualify bool
		wantReasons []string
	}{
		{"exact boundaries", f(5.0), f(100.0), 10, true, nil},
		{"yield just below", f(4.99), f(50), 10, false, []string{ReasonYield}},
		{"payout above", f(7), f(120), 10, false, []string{ReasonPayout}},
		{"payout undefined", f(9), nil, 10, false, []string{ReasonPayoutUndefined}},
		{"yield missing", nil, f(40), 10, false, []string{ReasonYieldMissing}},
		{"both fail", f(1), f(150), 10, false, []string{ReasonYield, ReasonPayout}},
	}

	s := newTestScreener()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &contracts.RawQuote{Ticker: "T", Price: tt.price, DividendYield: tt.yield}
			m := contracts.DerivedMetrics{PayoutRatio: tt.payout}

			v := s.Evaluate(q, m)
			assert.Equal(t, tt.wantQualify, v.Qualifies)
			assert.Equal(t, tt.wantReasons, v.Reasons)
		})
	}
}

func TestEvaluate_PriceFloor(t *testing.T) {
	cfg := criteria.Default().Screening
	cfg.MinPrice = 5
	s := NewScreener(cfg, logger.Nop())

	m := contracts.DerivedMetrics{PayoutRatio: f(50)}
	v := s.Evaluate(&contracts.RawQuote{Price: 5, DividendYield: f(6)}, m)
	assert.False(t, v.Qualifies)
	assert.Equal(t, []string{ReasonPrice}, v.Reasons)

	v = s.Evaluate(&contracts.RawQuote{Price: 5.01, DividendYield: f(6)}, m)
	assert.True(t, v.Qualifies)
}

func TestEvaluate_DiscountIsInformational(t *testing.T) {
	s := newTestScreener()
	q := &contracts.RawQuote{Price: 10, DividendYield: f(4)}
	m := contracts.DerivedMetrics{PayoutRatio: f(30), DiscountFromHigh: f(60)}

	assert.False(t, s.Evaluate(q, m).Qualifies)
}

func TestApply_QualifiesMatchesSustainability(t *testing.T) {
	s := newTestScreener()
	at := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)

	quotes := []*contracts.RawQuote{
		{Ticker: "A", Price: 20, DividendYield: f(6), DividendRate: f(1.2), TrailingEPS: f(2.4)},
		{Ticker: "B", Price: 20, DividendYield: f(7), DividendRate: f(1.4), TrailingEPS: f(1.1)},
		{Ticker: "C", Price: 20, DividendYield: f(9), DividendRate: f(1.8), NetIncome: f(-10)},
		{Ticker: "D", Price: 20, DividendYield: f(3), DividendRate: f(0.6), TrailingEPS: f(3)},
	}

	for _, q := range quotes {
		r := s.Apply("demo", "2026-03-02", at, q)
		want := contracts.Value(q.DividendYield) >= 5 && r.Sustainable
		assert.Equal(t, want, r.Qualifies, q.Ticker)
		if r.PayoutRatio != nil && *r.PayoutRatio > 100 {
			assert.False(t, r.Sustainable, q.Ticker)
		}
		assert.Equal(t, "demo", r.Market)
		assert.Equal(t, at, r.ScannedAt)
	}

	a := s.Apply("demo", "2026-03-02", at, quotes[0])
	require.NotNil(t, a.PayoutRatio)
	assert.Equal(t, 50.0, *a.PayoutRatio)
	assert.True(t, a.Qualifies)
	assert.Empty(t, a.DisqualifiedBy)
}

func TestApply_LooseMaxPayoutKeepsFixedSustainability(t *testing.T) {
	cfg := criteria.Default().Screening
	cfg.MaxPayout = 150
	s := NewScreener(cfg, logger.Nop())

	q := &contracts.RawQuote{Ticker: "T", Price: 20, DividendYield: f(6), DividendRate: f(1.1), TrailingEPS: f(1)}
	r := s.Apply("demo", "2026-03-02", time.Now().UTC(), q)

	require.NotNil(t, r.PayoutRatio)
	assert.Equal(t, 110.0, *r.PayoutRatio)
	assert.False(t, r.Sustainable, "payout above 100 is never sustainable")
	assert.True(t, r.Qualifies, "payout 110 passes max_payout 150")
}

func TestScreenAll(t *testing.T) {
	rows := []contracts.ScanResult{
		{Qualifies: true},
		{DisqualifiedBy: []string{ReasonYield}},
		{DisqualifiedBy: []string{ReasonYield, ReasonPayout}},
	}

	counts := newTestScreener().ScreenAll("demo", rows)
	assert.Equal(t, 2, counts[ReasonYield])
	assert.Equal(t, 1, counts[ReasonPayout])
}

func TestRankByYield(t *testing.T) {
	rows := []contracts.ScanResult{
		{RawQuote: contracts.RawQuote{Ticker: "B", DividendYield: f(6)}},
		{RawQuote: contracts.RawQuote{Ticker: "C", DividendYield: f(8)}},
		{RawQuote: contracts.RawQuote{Ticker: "A", DividendYield: f(6)}},
	}

	RankByYield(rows)
	assert.Equal(t, "C", rows[0].Ticker)
	assert.Equal(t, "A", rows[1].Ticker)
	assert.Equal(t, "B", rows[2].Ticker)
}
