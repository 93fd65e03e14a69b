package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/dividend-seeker/pkg/database"
)

// DBChecker reports database health (database.DB)
type DBChecker interface {
	HealthCheck(ctx context.Context) database.HealthStatus
}

// HealthHandler serves GET /health
type HealthHandler struct {
	db DBChecker // nil when snapshot sync is disabled
}

// NewHealthHandler creates a health handler; db may be nil
func NewHealthHandler(db DBChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// GetHealth returns server health status
// GET /health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "dividend-seeker-api",
	}

	if h.db == nil {
		body["database"] = "disabled"
		respondJSON(w, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := h.db.HealthCheck(ctx)
	body["database"] = status
	if !status.Healthy {
		body["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	respondJSON(w, http.StatusOK, body)
}
