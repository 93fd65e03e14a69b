package contracts

import "context"

// TickerSource returns the ticker list of a market (MarketRegistry)
// ⭐ SSOT: 종목 리스트 조회 인터페이스
type TickerSource interface {
	Tickers(ctx context.Context, market string) ([]Ticker, error)
}

// QuoteFetcher retrieves raw quote data for one ticker
// ⭐ SSOT: 외부 시세/재무 데이터 조회 인터페이스
// Errors returned must wrap ErrDataUnavailable, ErrProviderError or ErrMalformedData.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, ticker string) (*RawQuote, error)
}

// ResultStore persists scan output
// ⭐ SSOT: 결과 저장 인터페이스
type ResultStore interface {
	// WriteDailyResult creates or replaces the file for (market, scan date)
	WriteDailyResult(ctx context.Context, result *DailyResult) error

	// RefreshTopPicks rebuilds the merged artifact from the latest result of every market
	RefreshTopPicks(ctx context.Context) (*TopPicks, error)
}

// ResultSink receives a daily result after it was persisted (e.g. DB sync)
type ResultSink interface {
	SyncDaily(ctx context.Context, result *DailyResult) error
}
