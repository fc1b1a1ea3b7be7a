package calendar

import (
	"fmt"
	"strings"
	"time"
)

// dateLayout is the canonical wire encoding for dates.
const dateLayout = "2006-01-02"

// ValueFormat selects the textual encoding of the picker's bound value.
type ValueFormat int

const (
	// FormatDashed is YYYY-MM-DD (default).
	FormatDashed ValueFormat = iota
	// FormatCompact is YYYYMMDD.
	FormatCompact
	// FormatSlashed is YYYY/MM/DD.
	FormatSlashed
)

// layouts indexed by ValueFormat.
var formatLayouts = [...]string{
	FormatDashed:  dateLayout,
	FormatCompact: "20060102",
	FormatSlashed: "2006/01/02",
}

// ParseValueFormat converts a configuration string to a ValueFormat.
// Unsupported formats are a configuration error and fail fast instead
// of silently defaulting.
func ParseValueFormat(s string) (ValueFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "YYYY-MM-DD":
		return FormatDashed, nil
	case "YYYYMMDD":
		return FormatCompact, nil
	case "YYYY/MM/DD":
		return FormatSlashed, nil
	default:
		return FormatDashed, fmt.Errorf("unsupported value format: %q", s)
	}
}

// Layout returns the time layout for the format.
func (f ValueFormat) Layout() string {
	if int(f) < 0 || int(f) >= len(formatLayouts) {
		return dateLayout
	}
	return formatLayouts[f]
}

// Format renders t in the selected encoding.
func (f ValueFormat) Format(t time.Time) string {
	return t.Format(f.Layout())
}

// Parse decodes a value in the selected encoding, normalized to local noon.
func (f ValueFormat) Parse(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(f.Layout(), s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Normalize(t), nil
}

// ParseDate decodes a date in any of the supported encodings, picking the
// layout by shape: 10 chars with dashes, 10 chars with slashes, or 8 digits.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)

	var layout string
	switch {
	case len(s) == 10 && strings.Contains(s, "-"):
		layout = formatLayouts[FormatDashed]
	case len(s) == 10 && strings.Contains(s, "/"):
		layout = formatLayouts[FormatSlashed]
	case len(s) == 8:
		layout = formatLayouts[FormatCompact]
	default:
		return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
	}

	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Normalize(t), nil
}

// Normalize pins t to noon in its own location. Comparing and formatting
// noon-normalized dates is immune to DST transitions shifting a midnight
// timestamp into the adjacent day.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
