package calendar

import "time"

// BackendWeekday returns the Monday=0 … Sunday=6 day-of-week index used
// by the holiday contract, remapped from Go's Sunday=0 convention.
// The remap is part of the wire contract, not cosmetic.
func BackendWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	return BackendWeekday(t) >= 5
}

// weekdayNames are the display names emitted by the holiday endpoints,
// indexed by backend weekday (Monday first).
var weekdayNames = [7]string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// WeekdayName returns the display name for t's day of week.
func WeekdayName(t time.Time) string {
	return weekdayNames[BackendWeekday(t)]
}
