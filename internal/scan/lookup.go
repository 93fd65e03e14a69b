package scan

import (
	"context"
	"strings"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

// LookupMarket is the market label of ad-hoc lookups
const LookupMarket = "lookup"

// Lookup fetches and screens ad-hoc tickers without touching the store
func (o *Orchestrator) Lookup(ctx context.Context, symbols []string) []TickerOutcome {
	seen := make(map[string]bool, len(symbols))
	tickers := make([]contracts.Ticker, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tickers = append(tickers, contracts.Ticker{Symbol: s, Market: LookupMarket})
	}
	if len(tickers) == 0 {
		return []TickerOutcome{}
	}

	now := o.now()
	return o.scanTickers(ctx, tickers, now.Format(contracts.DateLayout), now.UTC())
}
