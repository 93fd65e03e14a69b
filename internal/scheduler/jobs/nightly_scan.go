package jobs

import (
	"context"

	"github.com/wonny/dividend-seeker/internal/scan"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

// BatchRunner runs a set of market scans (scan.Orchestrator)
type BatchRunner interface {
	RunAll(ctx context.Context, markets []string) *scan.BatchReport
}

// NightlyScanJob scans every configured market after the close
// ⭐ SSOT: 야간 스캔 스케줄은 이 Job에서만
type NightlyScanJob struct {
	runner   BatchRunner
	markets  []string
	schedule string
	logger   *logger.Logger
}

// NewNightlyScanJob creates the nightly scan job
func NewNightlyScanJob(runner BatchRunner, markets []string, schedule string, log *logger.Logger) *NightlyScanJob {
	return &NightlyScanJob{
		runner:   runner,
		markets:  markets,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *NightlyScanJob) Name() string {
	return "nightly_scan"
}

// Schedule returns the cron schedule (default weekdays 22:00)
func (j *NightlyScanJob) Schedule() string {
	return j.schedule
}

// Run scans the markets sequentially; a failed market does not stop the others
func (j *NightlyScanJob) Run(ctx context.Context) error {
	j.logger.WithField("markets", j.markets).Info("Starting scheduled market scans")

	batch := j.runner.RunAll(ctx, j.markets)
	for _, r := range batch.Reports {
		j.logger.WithFields(map[string]interface{}{
			"market":     r.Market,
			"state":      r.State,
			"scanned":    r.Scanned,
			"qualifying": r.Qualifying,
			"skipped":    r.SkippedCount(),
		}).Info("Market scan report")
	}

	return batch.Err()
}
