package contracts

import (
	"sort"
	"time"
)

// DateLayout is the layout used for scan dates in file names and records
const DateLayout = "2006-01-02"

// ScanResult is one screened ticker for one market and scan date
// ⭐ SSOT: 일별 결과 파일의 한 행
type ScanResult struct {
	Market    string    `json:"market"`
	ScanDate  string    `json:"scan_date"`
	ScannedAt time.Time `json:"scanned_at"`

	RawQuote
	DerivedMetrics

	Qualifies      bool     `json:"qualifies"`
	DisqualifiedBy []string `json:"disqualified_by,omitempty"`
}

// SkippedTicker records a ticker omitted from the result set
type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

// CriteriaSnapshot is the screening configuration recorded with each daily file
type CriteriaSnapshot struct {
	MinYield  float64 `json:"min_yield"`
	MaxPayout float64 `json:"max_payout"`
	MinPrice  float64 `json:"min_price,omitempty"`
}

// DailyResult is the persisted output of one market scan
// ⭐ SSOT: data/dividends/{date}_{market}.json 포맷
type DailyResult struct {
	RunID        string           `json:"run_id"`
	Market       string           `json:"market"`
	ScanDate     string           `json:"scan_date"`
	ScannedAt    time.Time        `json:"scanned_at"`
	Criteria     CriteriaSnapshot `json:"criteria"`
	CriteriaHash string           `json:"criteria_hash,omitempty"`

	TotalTickers int `json:"total_tickers"`
	TotalResults int `json:"total_results"`
	Qualifying   int `json:"qualifying"`
	SkippedCount int `json:"skipped_count"`

	Skipped []SkippedTicker `json:"skipped"`
	Results []ScanResult    `json:"results"`
}

// Normalize sorts rows by ticker and recomputes the counters
// Output order is independent of fetch completion order.
func (d *DailyResult) Normalize() {
	if d.Results == nil {
		d.Results = []ScanResult{}
	}
	if d.Skipped == nil {
		d.Skipped = []SkippedTicker{}
	}

	sort.SliceStable(d.Results, func(i, j int) bool {
		return d.Results[i].Ticker < d.Results[j].Ticker
	})
	sort.SliceStable(d.Skipped, func(i, j int) bool {
		return d.Skipped[i].Ticker < d.Skipped[j].Ticker
	})

	d.TotalResults = len(d.Results)
	d.SkippedCount = len(d.Skipped)
	d.Qualifying = 0
	for _, r := range d.Results {
		if r.Qualifies {
			d.Qualifying++
		}
	}
}

// QualifyingResults returns only rows with Qualifies == true
func (d *DailyResult) QualifyingResults() []ScanResult {
	out := make([]ScanResult, 0, d.Qualifying)
	for _, r := range d.Results {
		if r.Qualifies {
			out = append(out, r)
		}
	}
	return out
}

// TopPickSource identifies which daily file fed a top-picks rebuild
type TopPickSource struct {
	Market   string `json:"market"`
	ScanDate string `json:"scan_date"`
}

// TopPicks is the merged cross-market artifact
// ⭐ SSOT: data/candidates/top_picks.json 포맷 (항상 전체 재생성)
type TopPicks struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Total     int             `json:"total"`
	Sources   []TopPickSource `json:"sources"`
	Picks     []ScanResult    `json:"picks"`
}
