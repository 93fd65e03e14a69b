package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/renameio/v2"

	"github.com/wonny/dividend-seeker/pkg/httputil"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

// Source describes where one market's ticker list comes from
type Source struct {
	Market      string
	Description string
	URL         string              // empty = static list only
	Columns     []string            // header names tried in order
	Transform   func(string) string // applied to each scraped symbol
	Fallback    []string            // used when scraping fails or URL is empty
}

// ListFetcher refreshes market list files from Wikipedia tables and static lists
// ⭐ SSOT: data/markets/*.json 는 여기서만 생성
type ListFetcher struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	dir        string
	sources    []Source
}

// NewListFetcher creates a fetcher writing into dir with DefaultSources
func NewListFetcher(httpClient *httputil.Client, dir string, log *logger.Logger) *ListFetcher {
	return &ListFetcher{
		httpClient: httpClient,
		logger:     log.WithComponent("markets"),
		dir:        dir,
		sources:    DefaultSources(),
	}
}

// WithSources replaces the source set
func (f *ListFetcher) WithSources(sources []Source) *ListFetcher {
	f.sources = sources
	return f
}

// Sources returns the configured sources
func (f *ListFetcher) Sources() []Source {
	return f.sources
}

// Source looks up one market's source
func (f *ListFetcher) Source(market string) (Source, bool) {
	for _, s := range f.sources {
		if s.Market == market {
			return s, true
		}
	}
	return Source{}, false
}

// RefreshResult reports one market list refresh
type RefreshResult struct {
	Market   string
	Count    int
	Fallback bool
	Err      error
}

// RefreshAll fetches and saves every source, continuing past failures
func (f *ListFetcher) RefreshAll(ctx context.Context) []RefreshResult {
	results := make([]RefreshResult, 0, len(f.sources))
	for _, src := range f.sources {
		if ctx.Err() != nil {
			results = append(results, RefreshResult{Market: src.Market, Err: ctx.Err()})
			continue
		}
		results = append(results, f.Refresh(ctx, src))
	}
	return results
}

// Refresh fetches one source and saves its list
func (f *ListFetcher) Refresh(ctx context.Context, src Source) RefreshResult {
	log := f.logger.WithField("market", src.Market)

	tickers, fallback, err := f.Fetch(ctx, src)
	if err != nil {
		log.WithError(err).Error("Market list fetch failed")
		return RefreshResult{Market: src.Market, Err: err}
	}

	if err := f.Save(src.Market, src.Description, tickers); err != nil {
		log.WithError(err).Error("Market list save failed")
		return RefreshResult{Market: src.Market, Err: err}
	}

	log.WithFields(map[string]interface{}{
		"count":    len(tickers),
		"fallback": fallback,
	}).Info("Market list saved")

	return RefreshResult{Market: src.Market, Count: len(tickers), Fallback: fallback}
}

// Fetch returns the sorted ticker list of src; fallback reports whether the static list was used
func (f *ListFetcher) Fetch(ctx context.Context, src Source) ([]string, bool, error) {
	if src.URL == "" {
		if len(src.Fallback) == 0 {
			return nil, false, fmt.Errorf("market %s has neither URL nor static list", src.Market)
		}
		return cleanSymbols(src.Fallback, nil), true, nil
	}

	tickers, err := f.scrape(ctx, src)
	if err == nil && len(tickers) > 0 {
		return tickers, false, nil
	}
	if err == nil {
		err = fmt.Errorf("no table with columns %v", src.Columns)
	}

	if len(src.Fallback) > 0 {
		f.logger.WithError(err).WithField("market", src.Market).Warn("Scrape failed, using static list")
		return cleanSymbols(src.Fallback, nil), true, nil
	}
	return nil, false, err
}

func (f *ListFetcher) scrape(ctx context.Context, src Source) ([]string, error) {
	resp, err := f.httpClient.Get(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	return cleanSymbols(extractColumn(doc, src.Columns), src.Transform), nil
}

// extractColumn returns the cells of the first table carrying one of columns
func extractColumn(doc *goquery.Document, columns []string) []string {
	var out []string

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}

		col := headerIndex(rows.First(), columns)
		if col < 0 {
			return true
		}

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := row.Children().Filter("td, th")
			if col < cells.Length() {
				out = append(out, cells.Eq(col).Text())
			}
		})
		// 첫 번째로 매칭된 테이블만 사용
		return len(out) == 0
	})

	return out
}

func headerIndex(header *goquery.Selection, columns []string) int {
	names := header.Children().Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})

	for _, want := range columns {
		for i, name := range names {
			if strings.EqualFold(name, want) {
				return i
			}
		}
	}
	return -1
}

// cleanSymbols trims, transforms, de-duplicates and sorts
func cleanSymbols(raw []string, transform func(string) string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))

	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if transform != nil {
			s = transform(s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}

	sort.Strings(out)
	return out
}

// Save writes a market list atomically
func (f *ListFetcher) Save(market, description string, tickers []string) error {
	if !ValidMarketID(market) {
		return fmt.Errorf("invalid market id %q", market)
	}

	list := MarketList{
		Name:        market,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
		Count:       len(tickers),
		Tickers:     tickers,
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode market list: %w", err)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create markets dir: %w", err)
	}

	if err := renameio.WriteFile(filepath.Join(f.dir, market+".json"), data, 0o644); err != nil {
		return fmt.Errorf("write market list: %w", err)
	}
	return nil
}
