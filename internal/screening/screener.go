package screening

import (
	"sort"
	"time"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/criteria"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

// Disqualification reasons written to ScanResult.DisqualifiedBy
const (
	ReasonYieldMissing    = "yield_missing"
	ReasonYield           = "yield"
	ReasonPayoutUndefined = "payout_undefined"
	ReasonPayout          = "payout"
	ReasonPrice           = "price"
)

// Verdict is the screening outcome for one ticker
type Verdict struct {
	Qualifies bool
	Reasons   []string
}

// Screener applies the qualification rules
// ⭐ SSOT: 적격 판정 로직은 여기서만
// Discount from high is informational and never gates qualification.
type Screener struct {
	config  criteria.ScreeningConfig
	deriver *Deriver
	logger  *logger.Logger
}

// NewScreener creates a screener
func NewScreener(config criteria.ScreeningConfig, log *logger.Logger) *Screener {
	return &Screener{
		config:  config,
		deriver: NewDeriver(),
		logger:  log.WithComponent("screening"),
	}
}

// Config returns the thresholds in use
func (s *Screener) Config() criteria.ScreeningConfig {
	return s.config
}

// Evaluate checks every rule and lists all that failed
// Boundaries are inclusive: yield == min and payout == max both pass.
func (s *Screener) Evaluate(q *contracts.RawQuote, m contracts.DerivedMetrics) Verdict {
	var reasons []string

	// 1. dividend yield
	switch {
	case q.DividendYield == nil:
		reasons = append(reasons, ReasonYieldMissing)
	case *q.DividendYield < s.config.MinYield:
		reasons = append(reasons, ReasonYield)
	}

	// 2. payout ratio
	switch {
	case !m.HasPayout():
		reasons = append(reasons, ReasonPayoutUndefined)
	case *m.PayoutRatio > s.config.MaxPayout:
		reasons = append(reasons, ReasonPayout)
	}

	// 3. price floor (0 = disabled)
	if s.config.MinPrice > 0 && q.Price <= s.config.MinPrice {
		reasons = append(reasons, ReasonPrice)
	}

	return Verdict{Qualifies: len(reasons) == 0, Reasons: reasons}
}

// Apply derives metrics and screens one quote into a ScanResult row
func (s *Screener) Apply(market, scanDate string, scannedAt time.Time, q *contracts.RawQuote) contracts.ScanResult {
	metrics := s.deriver.Derive(q)
	verdict := s.Evaluate(q, metrics)

	return contracts.ScanResult{
		Market:         market,
		ScanDate:       scanDate,
		ScannedAt:      scannedAt,
		RawQuote:       *q,
		DerivedMetrics: metrics,
		Qualifies:      verdict.Qualifies,
		DisqualifiedBy: verdict.Reasons,
	}
}

// ScreenAll logs pass/fail counts per reason and returns them
func (s *Screener) ScreenAll(market string, results []contracts.ScanResult) map[string]int {
	filtered := make(map[string]int)
	passed := 0
	for _, r := range results {
		if r.Qualifies {
			passed++
			continue
		}
		for _, reason := range r.DisqualifiedBy {
			filtered[reason]++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"market":       market,
		"total_input":  len(results),
		"passed":       passed,
		"filtered_out": len(results) - passed,
		"filters":      filtered,
	}).Info("Screening completed")

	return filtered
}

// RankByYield sorts rows by dividend yield desc, then ticker
func RankByYield(rows []contracts.ScanResult) {
	sort.SliceStable(rows, func(i, j int) bool {
		yi, yj := contracts.Value(rows[i].DividendYield), contracts.Value(rows[j].DividendYield)
		if yi != yj {
			return yi > yj
		}
		return rows[i].Ticker < rows[j].Ticker
	})
}
