package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wenhao/stockboard/backend/internal/holidays"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// HolidayHandler serves the non-trading-day endpoints backing the
// frontend date picker.
type HolidayHandler struct {
	service *holidays.Service
	logger  *logger.Logger
	now     func() time.Time
}

// NewHolidayHandler creates a new holiday handler.
func NewHolidayHandler(service *holidays.Service, log *logger.Logger) *HolidayHandler {
	return &HolidayHandler{
		service: service,
		logger:  log,
		now:     time.Now,
	}
}

// GetNonTradingDays returns all non-trading days of one month.
// GET /api/holidays/non-trading-days?year=2024&month=1
// Missing year or month defaults to the current one.
func (h *HolidayHandler) GetNonTradingDays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	now := h.now()
	year, err := intParam(r, "year", now.Year())
	if err != nil {
		respondError(w, http.StatusBadRequest, holidays.CodeInvalidYear, err.Error())
		return
	}
	month, err := intParam(r, "month", int(now.Month()))
	if err != nil {
		respondError(w, http.StatusBadRequest, holidays.CodeInvalidMonth, err.Error())
		return
	}

	view, err := h.service.MonthNonTradingDays(ctx, year, month)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get non-trading days")
		respondServiceError(w, err, "FETCH_NON_TRADING_DAYS_ERROR")
		return
	}

	respondData(w, view, fmt.Sprintf("non-trading days for %04d-%02d", year, month))
}

// CheckDate returns the trading-status verdict for one date.
// GET /api/holidays/check-date?date=2024-01-01
func (h *HolidayHandler) CheckDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := h.service.CheckDate(ctx, r.URL.Query().Get("date"))
	if err != nil {
		h.logger.WithError(err).Warn("Check-date failed")
		respondServiceError(w, err, "CHECK_TRADING_STATUS_ERROR")
		return
	}

	respondData(w, info, fmt.Sprintf("trading status for %s", info.Date))
}

// GetRange returns all non-trading days in a date span.
// GET /api/holidays/range?start_date=2024-01-01&end_date=2024-02-01
func (h *HolidayHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	view, err := h.service.RangeNonTradingDays(ctx, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		h.logger.WithError(err).Warn("Range query failed")
		respondServiceError(w, err, "FETCH_RANGE_NON_TRADING_DAYS_ERROR")
		return
	}

	respondData(w, view, fmt.Sprintf("non-trading days from %s to %s", view.StartDate, view.EndDate))
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}
