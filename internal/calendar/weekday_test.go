package calendar

import (
	"testing"
	"time"
)

func TestBackendWeekday(t *testing.T) {
	// 2024-01-01 is a Monday.
	monday := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	want := []int{0, 1, 2, 3, 4, 5, 6}
	for i, w := range want {
		d := monday.AddDate(0, 0, i)
		if got := BackendWeekday(d); got != w {
			t.Errorf("BackendWeekday(%s %s) = %d, want %d",
				d.Format("2006-01-02"), d.Weekday(), got, w)
		}
	}
}

func TestBackendWeekdayRemapProperty(t *testing.T) {
	// For every date, the backend index equals (native+6)%7.
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 366; i++ {
		d := start.AddDate(0, 0, i)
		want := (int(d.Weekday()) + 6) % 7
		if got := BackendWeekday(d); got != want {
			t.Fatalf("BackendWeekday(%s) = %d, want %d", d.Format("2006-01-02"), got, want)
		}
	}
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"2024-01-01", false}, // Monday
		{"2024-01-05", false}, // Friday
		{"2024-01-06", true},  // Saturday
		{"2024-01-07", true},  // Sunday
		{"2024-01-08", false}, // Monday
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := ParseDate(tt.date, time.UTC)
			if err != nil {
				t.Fatalf("ParseDate(%q) failed: %v", tt.date, err)
			}
			if got := IsWeekend(d); got != tt.want {
				t.Errorf("IsWeekend(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestWeekdayName(t *testing.T) {
	monday := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := WeekdayName(monday); got != "周一" {
		t.Errorf("WeekdayName(Monday) = %q, want 周一", got)
	}

	sunday := monday.AddDate(0, 0, 6)
	if got := WeekdayName(sunday); got != "周日" {
		t.Errorf("WeekdayName(Sunday) = %q, want 周日", got)
	}
}
