package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/markets"
	"github.com/wonny/dividend-seeker/internal/scan"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

type fakeRunner struct {
	got   []string
	batch *scan.BatchReport
}

func (f *fakeRunner) RunAll(ctx context.Context, markets []string) *scan.BatchReport {
	f.got = markets
	return f.batch
}

func TestNightlyScanJob(t *testing.T) {
	runner := &fakeRunner{batch: &scan.BatchReport{
		Reports: []*scan.RunReport{
			{Market: "sp500", State: contracts.StateDone},
			{Market: "dax40", State: contracts.StateDone},
		},
	}}
	job := NewNightlyScanJob(runner, []string{"sp500", "dax40"}, "0 0 22 * * 1-5", logger.Nop())

	assert.Equal(t, "nightly_scan", job.Name())
	assert.Equal(t, "0 0 22 * * 1-5", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"sp500", "dax40"}, runner.got)
}

func TestNightlyScanJob_MarketFailed(t *testing.T) {
	runner := &fakeRunner{batch: &scan.BatchReport{
		Reports: []*scan.RunReport{
			{Market: "sp500", State: contracts.StateFailed},
			{Market: "dax40", State: contracts.StateDone},
		},
		Failed: []string{"sp500"},
	}}
	job := NewNightlyScanJob(runner, []string{"sp500", "dax40"}, "@daily", logger.Nop())

	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "sp500")
}

type fakeRefresher struct {
	results []markets.RefreshResult
}

func (f *fakeRefresher) RefreshAll(ctx context.Context) []markets.RefreshResult {
	return f.results
}

func TestMarketListsJob(t *testing.T) {
	ok := &fakeRefresher{results: []markets.RefreshResult{
		{Market: "sp500", Count: 503},
		{Market: "dax40", Count: 40, Fallback: true},
	}}
	job := NewMarketListsJob(ok, "0 0 6 * * 0", logger.Nop())
	assert.Equal(t, "market_lists", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	partial := &fakeRefresher{results: []markets.RefreshResult{
		{Market: "sp500", Count: 503},
		{Market: "cac40", Err: errors.New("status 503")},
	}}
	err := NewMarketListsJob(partial, "@weekly", logger.Nop()).Run(context.Background())
	assert.EqualError(t, err, "market lists failed: cac40")
}
