package calendar

import (
	"fmt"
	"time"
)

// DayKind classifies an authoritative non-trading record.
type DayKind string

const (
	// KindHoliday is a statutory holiday (元旦, 春节, ...).
	KindHoliday DayKind = "holiday"
	// KindClosure is any other exchange closure (make-up days, ad-hoc halts).
	KindClosure DayKind = "closure"
)

// DayRecord is one authoritative non-trading date for a month.
// Any record present in authoritative data means "known non-trading";
// Reason is display metadata only and never affects classification.
type DayRecord struct {
	Date   time.Time `json:"date"`
	Kind   DayKind   `json:"kind"`
	Reason string    `json:"reason,omitempty"`
}

// MonthKey identifies one calendar month in the resolver cache.
type MonthKey struct {
	Year  int
	Month int // 1-12 after normalization
}

// NewMonthKey builds a MonthKey, rolling month overflow into the year:
// month 0 becomes the previous December, month 13 the next January.
func NewMonthKey(year, month int) MonthKey {
	m := month - 1
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	return MonthKey{Year: year, Month: m + 1}
}

// MonthKeyOf returns the key of the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}

// Prev returns the preceding month's key.
func (k MonthKey) Prev() MonthKey {
	return NewMonthKey(k.Year, k.Month-1)
}

// Next returns the following month's key.
func (k MonthKey) Next() MonthKey {
	return NewMonthKey(k.Year, k.Month+1)
}

// String renders the key as "YYYY-MM".
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}
