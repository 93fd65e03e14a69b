package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/screening"
	"github.com/wonny/dividend-seeker/pkg/config"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

// Config holds orchestrator configuration
type Config struct {
	Workers      int           // concurrent fetch workers
	FetchTimeout time.Duration // bound of one fetch attempt
	MaxAttempts  int           // attempts per ticker, provider errors only
	RetryDelay   time.Duration // pause between attempts
}

// ConfigFrom maps the scan section of the environment config
func ConfigFrom(cfg config.ScanConfig) Config {
	return Config{
		Workers:      cfg.Workers,
		FetchTimeout: cfg.FetchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		RetryDelay:   500 * time.Millisecond,
	}
}

// TickerOutcome is the per-ticker result of the scanning stage
// Exactly one of Result and Err is set.
type TickerOutcome struct {
	Ticker   contracts.Ticker
	Result   *contracts.ScanResult
	Err      error
	Attempts int
}

// Orchestrator drives one market scan: list → fetch → derive → screen → persist
// ⭐ SSOT: 마켓 스캔 오케스트레이션은 여기서만
type Orchestrator struct {
	registry contracts.TickerSource
	fetcher  contracts.QuoteFetcher
	screener *screening.Screener
	store    contracts.ResultStore
	sink     contracts.ResultSink

	cfg          Config
	criteriaHash string
	logger       *logger.Logger
	now          func() time.Time
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(
	registry contracts.TickerSource,
	fetcher contracts.QuoteFetcher,
	screener *screening.Screener,
	store contracts.ResultStore,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}

	return &Orchestrator{
		registry: registry,
		fetcher:  fetcher,
		screener: screener,
		store:    store,
		cfg:      cfg,
		logger:   log.WithComponent("scan"),
		now:      time.Now,
	}
}

// WithSink adds a post-persist hook; its errors never fail the run
func (o *Orchestrator) WithSink(sink contracts.ResultSink) *Orchestrator {
	o.sink = sink
	return o
}

// WithCriteriaHash records the criteria hash in each daily file
func (o *Orchestrator) WithCriteriaHash(hash string) *Orchestrator {
	o.criteriaHash = hash
	return o
}

// WithClock overrides time.Now (tests)
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run scans one market end-to-end
// The report ends in Done, or in Failed on list or persistence errors only.
func (o *Orchestrator) Run(ctx context.Context, market string) *RunReport {
	started := o.now()
	report := &RunReport{
		RunID:     uuid.NewString(),
		Market:    market,
		ScanDate:  started.Format(contracts.DateLayout),
		State:     contracts.StateIdle,
		StartedAt: started,
		Skipped:   []contracts.SkippedTicker{},
	}
	log := o.logger.WithFields(map[string]interface{}{
		"run_id": report.RunID,
		"market": market,
	})

	fail := func(err error) *RunReport {
		report.Err = err
		report.transition(contracts.StateFailed, o.now())
		report.Duration = o.now().Sub(started)
		log.WithError(err).WithField("state", report.State).Error("Market scan failed")
		return report
	}

	// 1. FetchingList
	report.transition(contracts.StateFetchingList, o.now())
	tickers, err := o.registry.Tickers(ctx, market)
	if err != nil {
		return fail(fmt.Errorf("fetch ticker list: %w", err))
	}
	if len(tickers) == 0 {
		return fail(fmt.Errorf("fetch ticker list: %w: %s", contracts.ErrEmptyTickerList, market))
	}
	report.TotalTickers = len(tickers)

	log.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"workers": o.cfg.Workers,
	}).Info("Market scan started")

	// 2. ScanningTickers
	report.transition(contracts.StateScanningTickers, o.now())
	scannedAt := o.now().UTC()
	outcomes := o.scanTickers(ctx, tickers, report.ScanDate, scannedAt)

	result := &contracts.DailyResult{
		RunID:        report.RunID,
		Market:       market,
		ScanDate:     report.ScanDate,
		ScannedAt:    scannedAt,
		Criteria:     o.screener.Config().Snapshot(),
		CriteriaHash: o.criteriaHash,
		TotalTickers: len(tickers),
		Results:      make([]contracts.ScanResult, 0, len(outcomes)),
		Skipped:      []contracts.SkippedTicker{},
	}
	for _, oc := range outcomes {
		if oc.Err != nil {
			result.Skipped = append(result.Skipped, contracts.SkippedTicker{
				Ticker: oc.Ticker.Symbol,
				Kind:   contracts.KindOf(oc.Err),
				Error:  oc.Err.Error(),
			})
			continue
		}
		result.Results = append(result.Results, *oc.Result)
	}
	result.Normalize()
	o.screener.ScreenAll(market, result.Results)

	report.Scanned = result.TotalResults
	report.Qualifying = result.Qualifying
	report.Skipped = result.Skipped

	// 3. Persisting
	report.transition(contracts.StatePersisting, o.now())
	if err := o.store.WriteDailyResult(ctx, result); err != nil {
		return fail(fmt.Errorf("write daily result: %w", err))
	}

	picks, err := o.store.RefreshTopPicks(ctx)
	if err != nil {
		return fail(fmt.Errorf("refresh top picks: %w", err))
	}
	report.TopPicks = picks.Total

	if o.sink != nil {
		if err := o.sink.SyncDaily(ctx, result); err != nil {
			log.WithError(err).Warn("Result sink failed")
		}
	}

	// 4. Done
	report.transition(contracts.StateDone, o.now())
	report.Duration = o.now().Sub(started)

	log.WithFields(map[string]interface{}{
		"scanned":    report.Scanned,
		"qualifying": report.Qualifying,
		"skipped":    report.SkippedCount(),
		"top_picks":  report.TopPicks,
		"duration":   report.Duration.String(),
	}).Info("Market scan completed")

	return report
}

// RunAll runs markets sequentially and continues past failures
func (o *Orchestrator) RunAll(ctx context.Context, markets []string) *BatchReport {
	batch := &BatchReport{
		Reports: make([]*RunReport, 0, len(markets)),
		Failed:  []string{},
	}

	for _, market := range markets {
		report := o.Run(ctx, market)
		batch.Reports = append(batch.Reports, report)
		if !report.Succeeded() {
			batch.Failed = append(batch.Failed, market)
		}
	}

	o.logger.WithFields(map[string]interface{}{
		"markets": len(markets),
		"failed":  batch.Failed,
	}).Info("All market scans completed")

	return batch
}

// scanTickers fans tickers out to a bounded worker pool and collects outcomes
// Outcomes are sorted by symbol, independent of completion order.
func (o *Orchestrator) scanTickers(ctx context.Context, tickers []contracts.Ticker, scanDate string, scannedAt time.Time) []TickerOutcome {
	tickerCh := make(chan contracts.Ticker, len(tickers))
	resultCh := make(chan TickerOutcome, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			o.worker(ctx, workerID, tickerCh, resultCh, scanDate, scannedAt)
		}(i)
	}

	for _, t := range tickers {
		tickerCh <- t
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	outcomes := make([]TickerOutcome, 0, len(tickers))
	for oc := range resultCh {
		outcomes = append(outcomes, oc)
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Ticker.Symbol < outcomes[j].Ticker.Symbol
	})
	return outcomes
}

// worker processes tickers until the channel is drained
func (o *Orchestrator) worker(ctx context.Context, workerID int, tickerCh <-chan contracts.Ticker, resultCh chan<- TickerOutcome, scanDate string, scannedAt time.Time) {
	for t := range tickerCh {
		if err := ctx.Err(); err != nil {
			resultCh <- TickerOutcome{Ticker: t, Err: err}
			continue
		}

		quote, attempts, err := o.fetchWithRetry(ctx, t.Symbol)
		if err != nil {
			o.logger.WithError(err).WithFields(map[string]interface{}{
				"worker":   workerID,
				"market":   t.Market,
				"ticker":   t.Symbol,
				"kind":     contracts.KindOf(err),
				"attempts": attempts,
			}).Warn("Ticker skipped")
			resultCh <- TickerOutcome{Ticker: t, Err: err, Attempts: attempts}
			continue
		}

		row := o.screener.Apply(t.Market, scanDate, scannedAt, quote)

		o.logger.WithFields(map[string]interface{}{
			"worker":    workerID,
			"ticker":    t.Symbol,
			"yield":     contracts.Value(row.DividendYield),
			"qualifies": row.Qualifies,
		}).Debug("Ticker screened")

		resultCh <- TickerOutcome{Ticker: t, Result: &row, Attempts: attempts}
	}
}

type fetchResponse struct {
	quote *contracts.RawQuote
	err   error
}

// fetchWithRetry makes up to MaxAttempts bounded attempts
// Only ProviderError is retried; a timed-out attempt counts as ProviderError.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, symbol string) (*contracts.RawQuote, int, error) {
	for attempt := 1; ; attempt++ {
		quote, err := o.fetchOnce(ctx, symbol)
		if err == nil {
			return quote, attempt, nil
		}

		if !contracts.IsRetryable(err) || attempt >= o.cfg.MaxAttempts || ctx.Err() != nil {
			return nil, attempt, err
		}

		select {
		case <-ctx.Done():
			return nil, attempt, err
		case <-time.After(o.cfg.RetryDelay):
		}
	}
}

// fetchOnce runs one attempt under FetchTimeout
// The select returns on timeout even if the fetcher ignores its context.
func (o *Orchestrator) fetchOnce(ctx context.Context, symbol string) (*contracts.RawQuote, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
	defer cancel()

	ch := make(chan fetchResponse, 1)
	go func() {
		q, err := o.fetcher.FetchQuote(attemptCtx, symbol)
		ch <- fetchResponse{quote: q, err: err}
	}()

	select {
	case r := <-ch:
		switch {
		case r.err != nil && contracts.KindOf(r.err) == "unknown" && errors.Is(r.err, context.DeadlineExceeded):
			return nil, contracts.NewFetchError(symbol, contracts.ErrProviderError, r.err)
		case r.err != nil:
			return nil, r.err
		case r.quote == nil:
			return nil, contracts.NewFetchError(symbol, contracts.ErrMalformedData, errors.New("empty quote"))
		}
		return r.quote, nil
	case <-attemptCtx.Done():
		return nil, contracts.NewFetchError(symbol, contracts.ErrProviderError,
			fmt.Errorf("fetch timed out after %s: %w", o.cfg.FetchTimeout, attemptCtx.Err()))
	}
}
