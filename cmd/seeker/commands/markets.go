package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/dividend-seeker/internal/markets"
)

// marketsCmd represents the markets command
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Manage market ticker lists",
	Long: `Ticker lists live in DATA_DIR/markets/{market}.json.

Subcommands:
  refresh - scrape Wikipedia tables (static fallback) and rewrite the lists
  list    - show the lists on disk

Example:
  go run ./cmd/seeker markets refresh
  go run ./cmd/seeker markets refresh sp500 cac40
  go run ./cmd/seeker markets list`,
}

var (
	marketsRefreshCmd = &cobra.Command{
		Use:   "refresh [market...]",
		Short: "Refresh market ticker lists",
		RunE:  runMarketsRefresh,
	}

	marketsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List market ticker lists on disk",
		RunE:  runMarketsList,
	}
)

func init() {
	rootCmd.AddCommand(marketsCmd)
	marketsCmd.AddCommand(marketsRefreshCmd)
	marketsCmd.AddCommand(marketsListCmd)
}

func runMarketsRefresh(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []markets.RefreshResult
	if len(args) == 0 {
		results = a.lists.RefreshAll(ctx)
	} else {
		for _, m := range args {
			src, ok := a.lists.Source(m)
			if !ok {
				return fmt.Errorf("no list source for market %q", m)
			}
			results = append(results, a.lists.Refresh(ctx, src))
		}
	}

	PrintHeader("Market Lists", "Directory", a.cfg.MarketsDir())
	widths := []int{14, 8, 10, 30}
	PrintTableHeader([]string{"MARKET", "COUNT", "SOURCE", "ERROR"}, widths)

	failed := 0
	for _, r := range results {
		source, errText := "scraped", ""
		if r.Fallback {
			source = "static"
		}
		if r.Err != nil {
			failed++
			source, errText = "-", r.Err.Error()
		}
		PrintTableRow([]string{r.Market, fmt.Sprint(r.Count), source, errText}, widths)
	}
	fmt.Println()

	if failed > 0 {
		return fmt.Errorf("%d market list(s) failed", failed)
	}
	PrintSuccess(fmt.Sprintf("%d market list(s) saved", len(results)))
	return nil
}

func runMarketsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := markets.NewFileRegistry(cfg.MarketsDir())
	ids, err := registry.Markets()
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		PrintInfo("No market lists yet. Run: seeker markets refresh")
		return nil
	}

	widths := []int{14, 8, 22, 30}
	PrintTableHeader([]string{"MARKET", "COUNT", "UPDATED", "DESCRIPTION"}, widths)
	for _, id := range ids {
		list, err := registry.Load(id)
		if err != nil {
			PrintTableRow([]string{id, "-", "-", err.Error()}, widths)
			continue
		}
		PrintTableRow([]string{
			id,
			fmt.Sprint(len(list.Tickers)),
			list.UpdatedAt.Format("2006-01-02 15:04"),
			list.Description,
		}, widths)
	}
	return nil
}
