package store

import (
	"sort"
	"time"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/screening"
)

// BuildTopPicks merges the qualifying rows of the given daily results
// The result is built from scratch; nothing from a previous artifact is reused.
// A ticker listed in several markets is kept once: highest yield wins, then the
// later scan date, then the lexically smaller market.
func BuildTopPicks(dailies []*contracts.DailyResult, limit int, now time.Time) *contracts.TopPicks {
	best := make(map[string]contracts.ScanResult)
	sources := make([]contracts.TopPickSource, 0, len(dailies))

	for _, d := range dailies {
		sources = append(sources, contracts.TopPickSource{Market: d.Market, ScanDate: d.ScanDate})

		for _, r := range d.Results {
			if !r.Qualifies {
				continue
			}
			// 행 자체에 출처가 없을 수 있으므로 파일 기준으로 채움
			r.Market, r.ScanDate = d.Market, d.ScanDate

			cur, ok := best[r.Ticker]
			if !ok || preferred(r, cur) {
				best[r.Ticker] = r
			}
		}
	}

	picks := make([]contracts.ScanResult, 0, len(best))
	for _, r := range best {
		picks = append(picks, r)
	}
	screening.RankByYield(picks)

	if limit > 0 && len(picks) > limit {
		picks = picks[:limit]
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Market < sources[j].Market })

	return &contracts.TopPicks{
		UpdatedAt: now,
		Total:     len(picks),
		Sources:   sources,
		Picks:     picks,
	}
}

// preferred reports whether a should replace b for the same ticker
func preferred(a, b contracts.ScanResult) bool {
	ya, yb := contracts.Value(a.DividendYield), contracts.Value(b.DividendYield)
	if ya != yb {
		return ya > yb
	}
	if a.ScanDate != b.ScanDate {
		return a.ScanDate > b.ScanDate
	}
	return a.Market < b.Market
}
