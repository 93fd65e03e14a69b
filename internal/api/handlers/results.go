package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/dividend-seeker/internal/contracts"
	"github.com/wonny/dividend-seeker/internal/markets"
	"github.com/wonny/dividend-seeker/internal/store"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

// ResultsHandler serves persisted daily results and top picks
// ⭐ SSOT: 결과 파일 조회 API는 이 핸들러에서만 (읽기 전용)
type ResultsHandler struct {
	store  ResultReader
	logger *logger.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(reader ResultReader, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		store:  reader,
		logger: log,
	}
}

// MarketSummary is one entry of GET /api/markets
type MarketSummary struct {
	Market     string `json:"market"`
	LatestScan string `json:"latest_scan"`
}

// GetMarkets lists markets with persisted results
// GET /api/markets
func (h *ResultsHandler) GetMarkets(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.Markets()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list markets")
		respondError(w, http.StatusInternalServerError, "Failed to list markets")
		return
	}

	out := make([]MarketSummary, 0, len(latest))
	for m, d := range latest {
		out = append(out, MarketSummary{Market: m, LatestScan: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    out,
	})
}

// GetResults returns one daily result file (latest unless ?date= is given)
// GET /api/results/{market}?date=YYYY-MM-DD
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	market := mux.Vars(r)["market"]
	if !markets.ValidMarketID(market) {
		respondError(w, http.StatusBadRequest, "Invalid market id")
		return
	}

	date := r.URL.Query().Get("date")
	var (
		daily *contracts.DailyResult
		err   error
	)
	if date == "" {
		daily, err = h.store.LatestDaily(market)
	} else {
		if _, perr := time.Parse(contracts.DateLayout, date); perr != nil {
			respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
			return
		}
		daily, err = h.store.ReadDaily(market, date)
	}

	if err != nil {
		h.fail(w, err, "Failed to read results", map[string]interface{}{"market": market, "date": date})
		return
	}

	respondJSON(w, http.StatusOK, daily)
}

// GetTopPicks returns the merged top picks artifact
// GET /api/top-picks
func (h *ResultsHandler) GetTopPicks(w http.ResponseWriter, r *http.Request) {
	tp, err := h.store.ReadTopPicks()
	if err != nil {
		h.fail(w, err, "Failed to read top picks", nil)
		return
	}

	respondJSON(w, http.StatusOK, tp)
}

// GetTopN returns the first n top picks
// GET /api/top/{n}
func (h *ResultsHandler) GetTopN(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil || n < 1 {
		respondError(w, http.StatusBadRequest, "n must be a positive integer")
		return
	}

	tp, err := h.store.ReadTopPicks()
	if err != nil {
		h.fail(w, err, "Failed to read top picks", nil)
		return
	}

	picks := tp.Picks
	if n < len(picks) {
		picks = picks[:n]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"updated_at": tp.UpdatedAt,
		"total":      tp.Total,
		"data":       picks,
	})
}

// fail maps store.ErrNotFound to 404 and everything else to 500
func (h *ResultsHandler) fail(w http.ResponseWriter, err error, msg string, fields map[string]interface{}) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	log := h.logger.WithError(err)
	if fields != nil {
		log = log.WithFields(fields)
	}
	log.Error(msg)
	respondError(w, http.StatusInternalServerError, msg)
}
