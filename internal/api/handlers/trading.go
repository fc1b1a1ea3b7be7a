package handlers

import (
	"net/http"

	"github.com/wenhao/stockboard/backend/internal/holidays"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// TradingHandler serves the latest-trading-date endpoint the picker
// seeds itself from on mount.
type TradingHandler struct {
	service *holidays.Service
	logger  *logger.Logger
}

// NewTradingHandler creates a new trading handler.
func NewTradingHandler(service *holidays.Service, log *logger.Logger) *TradingHandler {
	return &TradingHandler{
		service: service,
		logger:  log,
	}
}

// GetLatestDate returns the most recent trading date.
// GET /api/trading/latest-date
func (h *TradingHandler) GetLatestDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	latest, err := h.service.LatestTradingDate(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve latest trading date")
		respondServiceError(w, err, "FETCH_LATEST_DATE_ERROR")
		return
	}

	respondData(w, latest, "latest trading date")
}
