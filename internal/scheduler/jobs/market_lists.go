package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/dividend-seeker/internal/markets"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

// ListRefresher refreshes market ticker lists (markets.ListFetcher)
type ListRefresher interface {
	RefreshAll(ctx context.Context) []markets.RefreshResult
}

// MarketListsJob refreshes data/markets/*.json out of band of the scans
type MarketListsJob struct {
	refresher ListRefresher
	schedule  string
	logger    *logger.Logger
}

// NewMarketListsJob creates the market list refresh job
func NewMarketListsJob(refresher ListRefresher, schedule string, log *logger.Logger) *MarketListsJob {
	return &MarketListsJob{
		refresher: refresher,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *MarketListsJob) Name() string {
	return "market_lists"
}

// Schedule returns the cron schedule (default Sunday 06:00)
func (j *MarketListsJob) Schedule() string {
	return j.schedule
}

// Run refreshes every list; lists that fail keep their previous file
func (j *MarketListsJob) Run(ctx context.Context) error {
	var failed []string
	saved := 0

	for _, r := range j.refresher.RefreshAll(ctx) {
		if r.Err != nil {
			failed = append(failed, r.Market)
			continue
		}
		saved++
	}

	j.logger.WithFields(map[string]interface{}{
		"saved":  saved,
		"failed": failed,
	}).Info("Market lists refreshed")

	if len(failed) > 0 {
		return fmt.Errorf("market lists failed: %s", strings.Join(failed, ", "))
	}
	return nil
}
