package screening

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

// SustainablePayout is the payout ceiling (percent) of the sustainability flag.
// It is fixed; the configurable max_payout only gates qualification.
const SustainablePayout = 100.0

// Deriver computes DerivedMetrics from a RawQuote
// ⭐ SSOT: payout / discount / sustainability 계산은 여기서만
// Derive is pure: same quote in, same metrics out.
type Deriver struct{}

// NewDeriver creates a deriver
func NewDeriver() *Deriver {
	return &Deriver{}
}

// Derive computes payout ratio, discount from high and the sustainability flag
// Missing inputs leave the matching metric nil; nothing here fails.
func (d *Deriver) Derive(q *contracts.RawQuote) contracts.DerivedMetrics {
	if q == nil {
		return contracts.DerivedMetrics{}
	}

	m := contracts.DerivedMetrics{
		PayoutRatio:      round2(payoutRatio(q)),
		DiscountFromHigh: round2(discountFromHigh(q)),
	}
	if q.MarketCap != nil && *q.MarketCap > 0 {
		m.MarketCapB = round2(contracts.Float(*q.MarketCap / 1e9))
	}

	// 반올림 이후 값으로 판정해야 파일의 수치와 플래그가 일치함
	m.Sustainable = m.PayoutRatio != nil && *m.PayoutRatio <= SustainablePayout

	return m
}

// payoutRatio picks the first source the provider supplied:
// net income, then trailing EPS, then the provider's own ratio.
func payoutRatio(q *contracts.RawQuote) *float64 {
	if q.NetIncome != nil {
		ni := *q.NetIncome
		if ni <= 0 {
			return nil
		}
		if q.DividendRate != nil && q.SharesOutstanding != nil && *q.SharesOutstanding > 0 {
			return contracts.Float(*q.DividendRate * *q.SharesOutstanding / ni * 100)
		}
	}

	if q.TrailingEPS != nil {
		eps := *q.TrailingEPS
		if eps <= 0 {
			return nil
		}
		if q.DividendRate != nil {
			return contracts.Float(*q.DividendRate / eps * 100)
		}
	}

	// provider 비율은 이익 수치가 전혀 없을 때만 사용
	if q.NetIncome == nil && q.TrailingEPS == nil && q.ProviderPayoutRatio != nil && *q.ProviderPayoutRatio >= 0 {
		return contracts.Float(*q.ProviderPayoutRatio)
	}

	return nil
}

// discountFromHigh is clamped to >= 0 (a stale high never yields a negative discount)
func discountFromHigh(q *contracts.RawQuote) *float64 {
	if q.FiftyTwoWeekHigh == nil || *q.FiftyTwoWeekHigh <= 0 || q.Price <= 0 {
		return nil
	}
	high := *q.FiftyTwoWeekHigh
	return contracts.Float(math.Max(0, (high-q.Price)/high*100))
}

// round2 rounds half away from zero to 2 decimals; NaN and Inf become nil
func round2(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f, _ := decimal.NewFromFloat(*v).Round(2).Float64()
	return &f
}

// Round2 rounds v half away from zero to 2 decimals (API aggregates)
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
