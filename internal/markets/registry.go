package markets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

// MarketList is the on-disk format of data/markets/{market}.json
type MarketList struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
	Count       int       `json:"count"`
	Tickers     []string  `json:"tickers"`
}

// marketIDPattern keeps market ids usable as file names
var marketIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidMarketID reports whether id can name a market list
func ValidMarketID(id string) bool {
	return marketIDPattern.MatchString(id)
}

// FileRegistry reads ticker lists written by the list fetcher
// ⭐ SSOT: 마켓 → 티커 목록 조회는 여기서만 (read-only)
type FileRegistry struct {
	dir string
}

// NewFileRegistry creates a registry over dir (usually DATA_DIR/markets)
func NewFileRegistry(dir string) *FileRegistry {
	return &FileRegistry{dir: dir}
}

// Load reads the raw list file of one market
func (r *FileRegistry) Load(market string) (*MarketList, error) {
	if !ValidMarketID(market) {
		return nil, fmt.Errorf("%w: %q", contracts.ErrUnknownMarket, market)
	}

	data, err := os.ReadFile(filepath.Join(r.dir, market+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", contracts.ErrUnknownMarket, market)
		}
		return nil, fmt.Errorf("read market list %s: %w", market, err)
	}

	var list MarketList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode market list %s: %w", market, err)
	}
	return &list, nil
}

// Tickers returns the ticker set of market
func (r *FileRegistry) Tickers(ctx context.Context, market string) ([]contracts.Ticker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list, err := r.Load(market)
	if err != nil {
		return nil, err
	}
	return toTickers(market, list.Tickers)
}

// Markets lists the market ids that have a list file, sorted
func (r *FileRegistry) Markets() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read markets dir: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if id := strings.TrimSuffix(name, ".json"); ValidMarketID(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// StaticRegistry is an in-memory registry (tests, ad-hoc runs)
type StaticRegistry map[string][]string

// Tickers returns the ticker set of market
func (s StaticRegistry) Tickers(ctx context.Context, market string) ([]contracts.Ticker, error) {
	symbols, ok := s[market]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrUnknownMarket, market)
	}
	return toTickers(market, symbols)
}

// toTickers trims and de-duplicates symbols, keeping first-seen order
func toTickers(market string, symbols []string) ([]contracts.Ticker, error) {
	seen := make(map[string]bool, len(symbols))
	tickers := make([]contracts.Ticker, 0, len(symbols))

	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tickers = append(tickers, contracts.Ticker{Symbol: s, Market: market})
	}

	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: %s", contracts.ErrEmptyTickerList, market)
	}
	return tickers, nil
}
