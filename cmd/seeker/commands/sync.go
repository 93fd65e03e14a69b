package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync persisted daily results into PostgreSQL",
	Long: `Upserts daily result files into the snapshot database (DATABASE_URL).
Without flags the latest file of every market is synced.

Example:
  go run ./cmd/seeker sync
  go run ./cmd/seeker sync --market sp500 --date 2026-03-02
  go run ./cmd/seeker sync --stats`,
	RunE: runSync,
}

var (
	syncMarket string
	syncDate   string
	syncStats  bool
)

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncMarket, "market", "", "market id (default: all markets)")
	syncCmd.Flags().StringVar(&syncDate, "date", "", "scan date YYYY-MM-DD (default: latest; requires --market)")
	syncCmd.Flags().BoolVar(&syncStats, "stats", false, "only print database statistics")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.snapshots == nil {
		return errors.New("snapshot database not available (set DATABASE_URL)")
	}

	if !syncStats {
		dailies, err := selectDailies(a)
		if err != nil {
			return err
		}

		for _, d := range dailies {
			if err := a.snapshots.SyncDaily(ctx, d); err != nil {
				return fmt.Errorf("sync %s %s: %w", d.Market, d.ScanDate, err)
			}
			PrintSuccess(fmt.Sprintf("Synced %s %s (%d rows)", d.Market, d.ScanDate, len(d.Results)))
		}
	}

	stats, err := a.snapshots.Stats(ctx)
	if err != nil {
		return err
	}

	PrintHeader("Database Stats")
	PrintKeyValue("Stocks", fmt.Sprint(stats.Stocks), 18)
	PrintKeyValue("Snapshots", fmt.Sprintf("%d (%d scan days)", stats.Snapshots, stats.ScanDays), 18)
	PrintKeyValue("Upcoming dividends", fmt.Sprint(stats.UpcomingDividends), 18)
	PrintSeparator()
	for i, t := range stats.Top {
		fmt.Printf("   %d. %-10s %-10s %6.2f%%\n", i+1, t.Ticker, t.Market, t.DividendYield)
	}
	return nil
}

func selectDailies(a *app) ([]*contracts.DailyResult, error) {
	switch {
	case syncMarket == "" && syncDate != "":
		return nil, errors.New("--date requires --market")
	case syncMarket == "":
		return a.store.LatestAll()
	case syncDate == "":
		d, err := a.store.LatestDaily(syncMarket)
		if err != nil {
			return nil, err
		}
		return []*contracts.DailyResult{d}, nil
	default:
		d, err := a.store.ReadDaily(syncMarket, syncDate)
		if err != nil {
			return nil, err
		}
		return []*contracts.DailyResult{d}, nil
	}
}
