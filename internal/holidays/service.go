package holidays

import (
	"context"
	"fmt"
	"time"

	"github.com/wenhao/stockboard/backend/internal/calendar"
	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/logger"
	"github.com/wenhao/stockboard/backend/pkg/redis"
)

// Store is the persistence surface the service reads from.
type Store interface {
	ListMonth(ctx context.Context, year, month int) ([]calendar.DayRecord, error)
	ListRange(ctx context.Context, from, to time.Time) ([]calendar.DayRecord, error)
}

// ValidationError is a caller mistake with a stable machine code; the
// API layer maps it to HTTP 400.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation codes returned to API clients.
const (
	CodeInvalidYear      = "INVALID_YEAR"
	CodeInvalidMonth     = "INVALID_MONTH"
	CodeInvalidDate      = "INVALID_DATE"
	CodeMissingDate      = "MISSING_DATE"
	CodeMissingDateRange = "MISSING_DATE_RANGE"
)

// NonTradingDay is one entry of a month or range payload, shaped for
// the date-picker frontend.
type NonTradingDay struct {
	Date    string `json:"date"`
	Type    string `json:"type"` // holiday | closure | weekend
	Name    string `json:"name"`
	Weekday string `json:"weekday"` // 周一..周日
}

// MonthView is the non-trading-days payload for one month.
type MonthView struct {
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	NonTradingDays []NonTradingDay `json:"non_trading_days"`
	Count          int             `json:"count"`
}

// RangeView is the non-trading-days payload for a date span.
type RangeView struct {
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	NonTradingDays []NonTradingDay `json:"non_trading_days"`
	Count          int             `json:"count"`
}

// DateInfo is the full trading-status verdict for one date.
type DateInfo struct {
	Date            string `json:"date"`
	Weekday         int    `json:"weekday"` // 0=Monday .. 6=Sunday
	WeekdayName     string `json:"weekday_name"`
	IsWeekend       bool   `json:"is_weekend"`
	IsHoliday       bool   `json:"is_holiday"`
	IsNonTradingDay bool   `json:"is_non_trading_day"`
	IsTradingDay    bool   `json:"is_trading_day"`
	HolidayName     string `json:"holiday_name,omitempty"`
}

// LatestDate is the latest-trading-date payload.
type LatestDate struct {
	LatestDate  string `json:"latest_date"`
	CurrentDate string `json:"current_date"`
}

// Service computes trading-day views over the persisted holiday set.
// The weekend rule lives in the calendar package; this layer joins it
// with authoritative records and shapes API payloads.
type Service struct {
	store   Store
	cache   *redis.Cache
	logger  *logger.Logger
	yearMin int
	yearMax int
	now     func() time.Time
}

// NewService creates the holiday service. cache may be nil when Redis
// is disabled.
func NewService(store Store, cache *redis.Cache, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		logger:  log.WithComponent("holidays"),
		yearMin: cfg.Calendar.YearMin,
		yearMax: cfg.Calendar.YearMax,
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NonTradingDays returns only the authoritative records for a month,
// satisfying calendar.HolidaySource so a resolver can run off the
// database directly.
func (s *Service) NonTradingDays(ctx context.Context, year, month int) ([]calendar.DayRecord, error) {
	return s.store.ListMonth(ctx, year, month)
}

// MonthNonTradingDays returns every non-trading day of a month:
// authoritative records joined with the weekend rule.
func (s *Service) MonthNonTradingDays(ctx context.Context, year, month int) (*MonthView, error) {
	if year < s.yearMin || year > s.yearMax {
		return nil, &ValidationError{
			Code:    CodeInvalidYear,
			Message: fmt.Sprintf("year must be between %d and %d", s.yearMin, s.yearMax),
		}
	}
	if month < 1 || month > 12 {
		return nil, &ValidationError{
			Code:    CodeInvalidMonth,
			Message: "month must be between 1 and 12",
		}
	}

	view := &MonthView{Year: year, Month: month}

	if s.cache != nil {
		found, err := s.cache.Get(ctx, redis.MonthKey(year, month), view)
		if err != nil {
			s.logger.WithError(err).Warn("Month cache read failed")
		} else if found {
			return view, nil
		}
	}

	first := time.Date(year, time.Month(month), 1, 12, 0, 0, 0, time.UTC)
	days, err := s.rangeEntries(ctx, first, first.AddDate(0, 1, -1))
	if err != nil {
		return nil, err
	}

	view.NonTradingDays = days
	view.Count = len(days)

	if s.cache != nil {
		if err := s.cache.Set(ctx, redis.MonthKey(year, month), view, redis.TTLDaily); err != nil {
			s.logger.WithError(err).Warn("Month cache write failed")
		}
	}

	return view, nil
}

// RangeNonTradingDays returns every non-trading day between two dates,
// inclusive.
func (s *Service) RangeNonTradingDays(ctx context.Context, startDate, endDate string) (*RangeView, error) {
	if startDate == "" || endDate == "" {
		return nil, &ValidationError{
			Code:    CodeMissingDateRange,
			Message: "start_date and end_date are required (format: YYYY-MM-DD)",
		}
	}

	from, err := calendar.ParseDate(startDate, time.UTC)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidDate, Message: err.Error()}
	}
	to, err := calendar.ParseDate(endDate, time.UTC)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidDate, Message: err.Error()}
	}
	if to.Before(from) {
		return nil, &ValidationError{
			Code:    CodeMissingDateRange,
			Message: "end_date must not precede start_date",
		}
	}

	days, err := s.rangeEntries(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &RangeView{
		StartDate:      calendar.FormatDashed.Format(from),
		EndDate:        calendar.FormatDashed.Format(to),
		NonTradingDays: days,
		Count:          len(days),
	}, nil
}

// CheckDate returns the full trading-status verdict for one date.
func (s *Service) CheckDate(ctx context.Context, dateStr string) (*DateInfo, error) {
	if dateStr == "" {
		return nil, &ValidationError{
			Code:    CodeMissingDate,
			Message: "date parameter is required (format: YYYY-MM-DD)",
		}
	}

	d, err := calendar.ParseDate(dateStr, time.UTC)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidDate, Message: err.Error()}
	}

	listed, err := s.listedFor(ctx, d, d)
	if err != nil {
		return nil, err
	}

	rec, isListed := listed[calendar.FormatDashed.Format(d)]
	weekend := calendar.IsWeekend(d)

	info := &DateInfo{
		Date:            calendar.FormatDashed.Format(d),
		Weekday:         calendar.BackendWeekday(d),
		WeekdayName:     calendar.WeekdayName(d),
		IsWeekend:       weekend,
		IsHoliday:       isListed,
		IsNonTradingDay: isListed || weekend,
		IsTradingDay:    !isListed && !weekend,
	}
	if isListed {
		info.HolidayName = rec.Reason
	}

	return info, nil
}

// LatestTradingDate walks back from today to the most recent trading
// day. The result is cached briefly so the picker-mount hot path stays
// off the database.
func (s *Service) LatestTradingDate(ctx context.Context) (*LatestDate, error) {
	var payload LatestDate
	if s.cache != nil {
		found, err := s.cache.Get(ctx, redis.LatestTradingDateKey(), &payload)
		if err != nil {
			s.logger.WithError(err).Warn("Latest-date cache read failed")
		} else if found {
			return &payload, nil
		}
	}

	today := calendar.Normalize(s.now().UTC())

	// One trailing month of records covers the longest holiday runs.
	listed, err := s.listedFor(ctx, today.AddDate(0, -1, 0), today)
	if err != nil {
		return nil, err
	}

	d := today
	for i := 0; i < 60; i++ {
		_, isListed := listed[calendar.FormatDashed.Format(d)]
		if !isListed && !calendar.IsWeekend(d) {
			payload = LatestDate{
				LatestDate:  calendar.FormatDashed.Format(d),
				CurrentDate: calendar.FormatDashed.Format(today),
			}
			if s.cache != nil {
				if err := s.cache.Set(ctx, redis.LatestTradingDateKey(), &payload, redis.TTLShort); err != nil {
					s.logger.WithError(err).Warn("Latest-date cache write failed")
				}
			}
			return &payload, nil
		}
		d = d.AddDate(0, 0, -1)
	}

	return nil, fmt.Errorf("no trading day found within 60 days before %s", calendar.FormatDashed.Format(today))
}

// InvalidateMonth drops the cached payloads touched by a month rewrite.
func (s *Service) InvalidateMonth(ctx context.Context, year, month int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, redis.MonthKey(year, month)); err != nil {
		s.logger.WithError(err).Warn("Month cache invalidation failed")
	}
	if err := s.cache.Delete(ctx, redis.LatestTradingDateKey()); err != nil {
		s.logger.WithError(err).Warn("Latest-date cache invalidation failed")
	}
}

// rangeEntries walks [from, to] day by day joining store records with
// the weekend rule, in the entry shape the frontend calendar expects.
func (s *Service) rangeEntries(ctx context.Context, from, to time.Time) ([]NonTradingDay, error) {
	listed, err := s.listedFor(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var entries []NonTradingDay
	for d := calendar.Normalize(from); !d.After(calendar.Normalize(to)); d = d.AddDate(0, 0, 1) {
		key := calendar.FormatDashed.Format(d)
		rec, isListed := listed[key]
		weekend := calendar.IsWeekend(d)
		if !isListed && !weekend {
			continue
		}

		entry := NonTradingDay{
			Date:    key,
			Weekday: calendar.WeekdayName(d),
		}
		switch {
		case isListed:
			entry.Type = string(rec.Kind)
			entry.Name = rec.Reason
			if entry.Name == "" {
				entry.Name = "休市"
			}
		default:
			entry.Type = "weekend"
			entry.Name = "周末"
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Service) listedFor(ctx context.Context, from, to time.Time) (map[string]calendar.DayRecord, error) {
	records, err := s.store.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}

	listed := make(map[string]calendar.DayRecord, len(records))
	for _, rec := range records {
		listed[calendar.FormatDashed.Format(rec.Date)] = rec
	}
	return listed, nil
}
