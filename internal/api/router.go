package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wenhao/stockboard/backend/internal/api/handlers"
	"github.com/wenhao/stockboard/backend/internal/api/stream"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
// Route registration happens here and nowhere else.
func NewRouter(
	holidayHandler *handlers.HolidayHandler,
	tradingHandler *handlers.TradingHandler,
	hub *stream.Hub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Holiday endpoints
	api.HandleFunc("/holidays/non-trading-days", holidayHandler.GetNonTradingDays).Methods("GET")
	api.HandleFunc("/holidays/check-date", holidayHandler.CheckDate).Methods("GET")
	api.HandleFunc("/holidays/range", holidayHandler.GetRange).Methods("GET")

	// Trading endpoints
	api.HandleFunc("/trading/latest-date", tradingHandler.GetLatestDate).Methods("GET")

	// Calendar event stream
	if hub != nil {
		r.Handle("/ws/calendar", hub).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stockboard-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
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

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
