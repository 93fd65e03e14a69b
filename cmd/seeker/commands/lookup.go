package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup TICKER...",
	Short: "Fetch and screen ad-hoc tickers",
	Long: `Fetches, derives and screens the given tickers with the active criteria.
Nothing is persisted.

Example:
  go run ./cmd/seeker lookup T VZ
  go run ./cmd/seeker lookup ENEL.MI --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

var lookupJSON bool

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print results as JSON")
}

// lookupEntry is the JSON shape of one lookup outcome
type lookupEntry struct {
	Ticker string                `json:"ticker"`
	Result *contracts.ScanResult `json:"result,omitempty"`
	Kind   string                `json:"error_kind,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	outcomes := a.orchestrator.Lookup(ctx, args)

	failed := 0
	entries := make([]lookupEntry, 0, len(outcomes))
	for _, o := range outcomes {
		e := lookupEntry{Ticker: o.Ticker.Symbol, Result: o.Result}
		if o.Err != nil {
			failed++
			e.Kind = contracts.KindOf(o.Err)
			e.Error = o.Err.Error()
		}
		entries = append(entries, e)
	}

	if lookupJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return err
		}
	} else {
		for _, e := range entries {
			if e.Result != nil {
				PrintResultCard(e.Result)
				continue
			}
			fmt.Println()
			PrintError(fmt.Sprintf("%s: %s (%s)", e.Ticker, e.Error, e.Kind))
		}
	}

	if failed == len(entries) {
		return errors.New("no ticker could be fetched")
	}
	return nil
}
