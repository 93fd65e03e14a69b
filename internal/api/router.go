package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/dividend-seeker/internal/api/handlers"
	"github.com/wonny/dividend-seeker/pkg/logger"
)

// Handlers groups the handlers mounted by NewRouter
type Handlers struct {
	Health  *handlers.HealthHandler
	Results *handlers.ResultsHandler
	Stocks  *handlers.StocksHandler
}

// NewHandlers builds every handler over one result reader; db may be nil
func NewHandlers(reader handlers.ResultReader, db handlers.DBChecker, log *logger.Logger) *Handlers {
	return &Handlers{
		Health:  handlers.NewHealthHandler(db),
		Results: handlers.NewResultsHandler(reader, log),
		Stocks:  handlers.NewStocksHandler(reader, log),
	}
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
// Every route is GET: the dashboard API never writes.
func NewRouter(h *Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.GetHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Results
	api.HandleFunc("/markets", h.Results.GetMarkets).Methods("GET")
	api.HandleFunc("/results/{market}", h.Results.GetResults).Methods("GET")
	api.HandleFunc("/top-picks", h.Results.GetTopPicks).Methods("GET")
	api.HandleFunc("/top/{n:[0-9]+}", h.Results.GetTopN).Methods("GET")

	// Stocks
	api.HandleFunc("/stats", h.Stocks.GetStats).Methods("GET")
	api.HandleFunc("/stocks", h.Stocks.GetStocks).Methods("GET")
	api.HandleFunc("/stock/{ticker}", h.Stocks.GetStock).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// statusRecorder captures the status code for the request log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
