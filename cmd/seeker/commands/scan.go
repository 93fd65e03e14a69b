package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [market...]",
	Short: "Scan one or more markets",
	Long: `Runs the scan pipeline for each market:
list → fetch → derive → screen → write daily file → rebuild top picks.

Markets run sequentially. A failed market does not stop the others; the
command exits non-zero when any market failed.

Example:
  go run ./cmd/seeker scan sp500
  go run ./cmd/seeker scan sp500 dax40
  go run ./cmd/seeker scan --all`,
	RunE: runScan,
}

var scanAll bool

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "scan every market in SCAN_MARKETS")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	targets := args
	if scanAll {
		targets = a.cfg.Scan.Markets
	}
	if len(targets) == 0 {
		return errors.New("no market given (use a market id or --all)")
	}

	PrintHeader("Dividend Scan",
		"Markets", fmt.Sprint(targets),
		"Criteria", fmt.Sprintf("%s (%s)", a.criteria.Meta.CriteriaID, a.criteriaHash[:12]),
		"Thresholds", fmt.Sprintf("yield ≥ %.2f%%, payout ≤ %.2f%%", a.criteria.Screening.MinYield, a.criteria.Screening.MaxPayout),
	)

	batch := a.orchestrator.RunAll(ctx, targets)

	fmt.Println()
	PrintRunReports(batch.Reports)
	fmt.Println()

	if err := batch.Err(); err != nil {
		PrintError(err.Error())
		return err
	}
	PrintSuccess(fmt.Sprintf("%d market(s) scanned", len(batch.Reports)))
	return nil
}
