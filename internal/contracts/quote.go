package contracts

// Ticker identifies one symbol inside one market list
type Ticker struct {
	Symbol string `json:"symbol"`
	Market string `json:"market"`
}

// RawQuote represents per-ticker data as returned by the quote provider
// ⭐ SSOT: Provider → Deriver 원시 데이터 전달
// Optional numeric fields are nil when the provider did not report them.
type RawQuote struct {
	Ticker   string  `json:"ticker"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Price    float64 `json:"price"`

	// Dividend
	DividendRate   *float64 `json:"dividend_rate"`  // annual, per share
	DividendYield  *float64 `json:"dividend_yield"` // percent (5.0 = 5%)
	ExDividendDate string   `json:"ex_dividend_date,omitempty"`

	// Earnings
	NetIncome           *float64 `json:"net_income"`
	SharesOutstanding   *float64 `json:"shares_outstanding"`
	TrailingEPS         *float64 `json:"trailing_eps"`
	ProviderPayoutRatio *float64 `json:"provider_payout_ratio"` // percent
	TrailingPE          *float64 `json:"pe_ratio"`

	// Size / range
	MarketCap        *float64 `json:"market_cap"`
	FiftyTwoWeekHigh *float64 `json:"52w_high"`
	FiftyTwoWeekLow  *float64 `json:"52w_low"`

	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// DerivedMetrics holds values computed from a RawQuote
// ⭐ SSOT: Deriver → Screener 파생 지표 전달
type DerivedMetrics struct {
	PayoutRatio      *float64 `json:"payout_ratio"`       // nil = undefined
	DiscountFromHigh *float64 `json:"discount_from_high"` // percent, never negative
	MarketCapB       *float64 `json:"market_cap_b"`
	Sustainable      bool     `json:"sustainable"`
}

// HasPayout reports whether the payout ratio could be computed
func (m DerivedMetrics) HasPayout() bool {
	return m.PayoutRatio != nil
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Value returns the pointed value or 0 when nil
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
