package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

// ResultReader is the read side of the result store (store.FileStore)
type ResultReader interface {
	Markets() (map[string]string, error)
	ReadDaily(market, scanDate string) (*contracts.DailyResult, error)
	LatestDaily(market string) (*contracts.DailyResult, error)
	LatestAll() ([]*contracts.DailyResult, error)
	ReadTopPicks() (*contracts.TopPicks, error)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
