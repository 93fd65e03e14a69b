package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/screening"
	"github.com/wonny/dividend-seeker/internal/store"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

const (
	defaultStocksMinYield = 5.0
	defaultStocksLimit    = 100
	maxStocksLimit        = 1000
)

// StocksHandler serves filtered views over the latest scan of every market
type StocksHandler struct {
	store  ResultReader
	logger *logger.Logger
}

// NewStocksHandler creates a new stocks handler
func NewStocksHandler(reader ResultReader, log *logger.Logger) *StocksHandler {
	return &StocksHandler{
		store:  reader,
		logger: log,
	}
}

// StocksQuery holds the parsed filters of GET /api/stocks
type StocksQuery struct {
	MinYield    float64
	Market      string
	Sustainable bool
	Sort        string // yield | discount
	Limit       int
}

// ParseStocksQuery reads and validates query parameters
func ParseStocksQuery(r *http.Request) (StocksQuery, error) {
	q := r.URL.Query()
	out := StocksQuery{
		MinYield: defaultStocksMinYield,
		Market:   strings.ToLower(q.Get("market")),
		Sort:     "yield",
		Limit:    defaultStocksLimit,
	}

	if v := q.Get("min_yield"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return out, errors.New("min_yield must be a non-negative number")
		}
		out.MinYield = f
	}

	if v := q.Get("sustainable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return out, errors.New("sustainable must be true or false")
		}
		out.Sustainable = b
	}

	if v := q.Get("sort"); v != "" {
		if v != "yield" && v != "discount" {
			return out, errors.New("sort must be yield or discount")
		}
		out.Sort = v
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return out, errors.New("limit must be a positive integer")
		}
		if n > maxStocksLimit {
			n = maxStocksLimit
		}
		out.Limit = n
	}

	return out, nil
}

// FilterStocks applies q to rows and returns the sorted, limited result
func FilterStocks(rows []contracts.ScanResult, q StocksQuery) []contracts.ScanResult {
	out := make([]contracts.ScanResult, 0)
	for _, row := range rows {
		if contracts.Value(row.DividendYield) < q.MinYield {
			continue
		}
		if q.Market != "" && row.Market != q.Market {
			continue
		}
		if q.Sustainable && !row.Sustainable {
			continue
		}
		out = append(out, row)
	}

	if q.Sort == "discount" {
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := contracts.Value(out[i].DiscountFromHigh), contracts.Value(out[j].DiscountFromHigh)
			if di != dj {
				return di > dj
			}
			return out[i].Ticker < out[j].Ticker
		})
	} else {
		screening.RankByYield(out)
	}

	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// GetStocks lists scanned stocks of the latest scans with filters
// GET /api/stocks?min_yield=5&market=sp500&sustainable=true&sort=yield&limit=100
func (h *StocksHandler) GetStocks(w http.ResponseWriter, r *http.Request) {
	q, err := ParseStocksQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.latestRows()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest results")
		respondError(w, http.StatusInternalServerError, "Failed to load results")
		return
	}

	respondJSON(w, http.StatusOK, FilterStocks(rows, q))
}

// StockDetail is the body of GET /api/stock/{ticker}
type StockDetail struct {
	Current  contracts.ScanResult   `json:"current"`
	Listings []contracts.ScanResult `json:"listings"`
	TopPick  bool                   `json:"top_pick"`
}

// GetStock returns the latest row of one ticker plus every market listing it
// GET /api/stock/{ticker}
func (h *StocksHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["ticker"]))

	rows, err := h.latestRows()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest results")
		respondError(w, http.StatusInternalServerError, "Failed to load results")
		return
	}

	var listings []contracts.ScanResult
	for _, row := range rows {
		if row.Ticker == ticker {
			listings = append(listings, row)
		}
	}
	if len(listings) == 0 {
		respondError(w, http.StatusNotFound, "Stock not found")
		return
	}

	// 가장 최근 스캔을 current 로 사용 (동일 날짜면 market 이름순)
	current := listings[0]
	for _, l := range listings[1:] {
		if l.ScanDate > current.ScanDate {
			current = l
		}
	}

	detail := StockDetail{Current: current, Listings: listings}
	if tp, err := h.store.ReadTopPicks(); err == nil {
		for _, p := range tp.Picks {
			if p.Ticker == ticker {
				detail.TopPick = true
				break
			}
		}
	}

	respondJSON(w, http.StatusOK, detail)
}

// Stats is the body of GET /api/stats
type Stats struct {
	TotalStocks  int     `json:"total_stocks"`
	AvgYield     float64 `json:"avg_yield"`
	MaxYield     float64 `json:"max_yield"`
	MinYield     float64 `json:"min_yield"`
	Sustainable  int     `json:"sustainable_count"`
	Scanned      int     `json:"scanned"`
	MarketsCount int     `json:"markets"`
	LastScan     *string `json:"last_scan"`
}

// GetStats summarizes top picks and the latest scans
// GET /api/stats
func (h *StocksHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	dailies, err := h.store.LatestAll()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest results")
		respondError(w, http.StatusInternalServerError, "Failed to load results")
		return
	}

	var picks []contracts.ScanResult
	tp, err := h.store.ReadTopPicks()
	switch {
	case err == nil:
		picks = tp.Picks
	case errors.Is(err, store.ErrNotFound):
	default:
		h.logger.WithError(err).Error("Failed to read top picks")
		respondError(w, http.StatusInternalServerError, "Failed to read top picks")
		return
	}

	respondJSON(w, http.StatusOK, ComputeStats(dailies, picks))
}

// ComputeStats builds dashboard stats; yields come from the top picks
func ComputeStats(dailies []*contracts.DailyResult, picks []contracts.ScanResult) Stats {
	s := Stats{TotalStocks: len(picks), MarketsCount: len(dailies)}

	for _, d := range dailies {
		s.Scanned += len(d.Results)
		if s.LastScan == nil || d.ScanDate > *s.LastScan {
			date := d.ScanDate
			s.LastScan = &date
		}
	}

	if len(picks) == 0 {
		return s
	}

	sum := 0.0
	s.MinYield = contracts.Value(picks[0].DividendYield)
	for _, p := range picks {
		y := contracts.Value(p.DividendYield)
		sum += y
		if y > s.MaxYield {
			s.MaxYield = y
		}
		if y < s.MinYield {
			s.MinYield = y
		}
		if p.Sustainable {
			s.Sustainable++
		}
	}
	s.AvgYield = screening.Round2(sum / float64(len(picks)))

	return s
}

func (h *StocksHandler) latestRows() ([]contracts.ScanResult, error) {
	dailies, err := h.store.LatestAll()
	if err != nil {
		return nil, err
	}

	var rows []contracts.ScanResult
	for _, d := range dailies {
		rows = append(rows, d.Results...)
	}
	return rows, nil
}
