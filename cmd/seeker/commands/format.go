package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/scan"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed command header
func PrintHeader(title string, pairs ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Printf("  %-10s: %s\n", pairs[i], pairs[i+1])
	}
	if len(pairs) > 0 {
		PrintSeparator()
	}
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// fmtPct formats an optional percent value, "-" when undefined
func fmtPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// fmtNum formats an optional number, "-" when undefined
func fmtNum(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// PrintRunReports prints one row per market run
func PrintRunReports(reports []*scan.RunReport) {
	widths := []int{12, 10, 10, 8, 10, 8, 8, 10}
	PrintTableHeader([]string{"MARKET", "STATE", "DATE", "TICKERS", "SCANNED", "QUALIFY", "SKIPPED", "DURATION"}, widths)
	for _, r := range reports {
		PrintTableRow([]string{
			r.Market,
			r.State.String(),
			r.ScanDate,
			fmt.Sprint(r.TotalTickers),
			fmt.Sprint(r.Scanned),
			fmt.Sprint(r.Qualifying),
			fmt.Sprint(r.SkippedCount()),
			r.Duration.Round(time.Millisecond).String(),
		}, widths)
	}
	for _, r := range reports {
		if r.Err != nil {
			PrintError(fmt.Sprintf("%s: %v", r.Market, r.Err))
		}
	}
}

// PrintResultCard prints one screened ticker in detail
func PrintResultCard(r *contracts.ScanResult) {
	PrintHeader(fmt.Sprintf("%s  %s", r.Ticker, r.Name))
	PrintKeyValue("Price", fmt.Sprintf("%.2f %s", r.Price, r.Currency), 16)
	PrintKeyValue("Dividend yield", fmtPct(r.DividendYield), 16)
	PrintKeyValue("Dividend rate", fmtNum(r.DividendRate), 16)
	PrintKeyValue("Payout ratio", fmtPct(r.PayoutRatio), 16)
	PrintKeyValue("Sustainable", yesNo(r.Sustainable), 16)
	PrintKeyValue("P/E", fmtNum(r.TrailingPE), 16)
	PrintKeyValue("Market cap (B)", fmtNum(r.MarketCapB), 16)
	PrintKeyValue("52w high / low", fmtNum(r.FiftyTwoWeekHigh)+" / "+fmtNum(r.FiftyTwoWeekLow), 16)
	PrintKeyValue("From 52w high", fmtPct(r.DiscountFromHigh), 16)
	if r.ExDividendDate != "" {
		PrintKeyValue("Ex-dividend", r.ExDividendDate, 16)
	}
	if r.Sector != "" {
		PrintKeyValue("Sector", r.Sector+" / "+r.Industry, 16)
	}
	PrintSeparator()
	if r.Qualifies {
		PrintSuccess("Qualifies")
	} else {
		PrintWarning("Disqualified: " + strings.Join(r.DisqualifiedBy, ", "))
	}
}
