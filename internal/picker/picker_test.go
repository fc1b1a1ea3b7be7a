package picker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wenhao/stockboard/backend/internal/calendar"
	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
	})
}

func day(s string) time.Time {
	d, err := calendar.ParseDate(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

// staticSource serves fixed per-month records.
type staticSource map[string][]calendar.DayRecord

func (s staticSource) NonTradingDays(_ context.Context, year, month int) ([]calendar.DayRecord, error) {
	return s[calendar.MonthKey{Year: year, Month: month}.String()], nil
}

// fixedLatest serves a fixed latest trading date.
type fixedLatest struct {
	date time.Time
	err  error
}

func (f fixedLatest) LatestTradingDate(context.Context) (time.Time, error) {
	return f.date, f.err
}

func clockAt(s string) func() time.Time {
	return func() time.Time { return day(s) }
}

func newPicker(t *testing.T, src calendar.HolidaySource, latest LatestDateSource, opts Options) *Picker {
	t.Helper()
	log := testLogger()
	r := calendar.NewResolver(src, log, time.UTC)
	return New(r, latest, opts, log)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"zero value", Options{}, false},
		{"slashed format", Options{ValueFormat: calendar.FormatSlashed}, false},
		{"unknown format", Options{ValueFormat: calendar.ValueFormat(99)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitSeedsFromLatestTradingDate(t *testing.T) {
	p := newPicker(t, staticSource{}, fixedLatest{date: day("2024-01-12")}, Options{
		EnableHolidayMarking: true,
		Now:                  clockAt("2024-01-15"),
	})

	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if got := p.Value(); got != "2024-01-12" {
		t.Errorf("Value() = %q, want 2024-01-12", got)
	}

	if got := p.VisibleMonth(); got != (calendar.MonthKey{Year: 2024, Month: 1}) {
		t.Errorf("VisibleMonth() = %v, want 2024-01", got)
	}

	if p.Loading() {
		t.Error("Loading() should be false after Init returns")
	}
}

func TestInitFallsBackWhenLatestUnavailable(t *testing.T) {
	// 2024-01-14 is a Sunday; the fallback walks back to Friday the 12th.
	p := newPicker(t, staticSource{}, fixedLatest{err: errors.New("api down")}, Options{
		Now: clockAt("2024-01-14"),
	})

	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if got := p.Value(); got != "2024-01-12" {
		t.Errorf("Value() = %q, want 2024-01-12 (weekend-rule fallback)", got)
	}
}

func TestSelectRejectsDisabledDate(t *testing.T) {
	src := staticSource{
		"2024-01": {{Date: day("2024-01-01"), Kind: calendar.KindHoliday, Reason: "元旦"}},
	}
	p := newPicker(t, src, nil, Options{
		EnableHolidayMarking:  true,
		DisableNonTradingDays: true,
		Now:                   clockAt("2024-01-15"),
	})

	ctx := context.Background()

	if err := p.Select(ctx, "2024-01-01"); err == nil {
		t.Error("expected listed holiday to be rejected")
	}
	if got := p.Value(); got != "" {
		t.Errorf("value should stay unset after rejected select, got %q", got)
	}

	// Saturday is rejected by the weekend rule.
	if err := p.Select(ctx, "2024-01-06"); err == nil {
		t.Error("expected Saturday to be rejected")
	}

	// An ordinary Tuesday is accepted.
	if err := p.Select(ctx, "2024-01-02"); err != nil {
		t.Errorf("Select(trading day) failed: %v", err)
	}
	if got := p.Value(); got != "2024-01-02" {
		t.Errorf("Value() = %q, want 2024-01-02", got)
	}
}

func TestSelectAcceptsAllEncodings(t *testing.T) {
	p := newPicker(t, staticSource{}, nil, Options{
		ValueFormat: calendar.FormatCompact,
		Now:         clockAt("2024-01-15"),
	})

	ctx := context.Background()

	for _, raw := range []string{"2024-01-02", "20240102", "2024/01/02"} {
		if err := p.Select(ctx, raw); err != nil {
			t.Errorf("Select(%q) failed: %v", raw, err)
		}
		if got := p.Value(); got != "20240102" {
			t.Errorf("Value() after Select(%q) = %q, want 20240102", raw, got)
		}
	}

	if err := p.Select(ctx, "bogus"); err == nil {
		t.Error("expected malformed input to be rejected")
	}
}

func TestSelectCustomDisabledDate(t *testing.T) {
	p := newPicker(t, staticSource{}, nil, Options{
		CustomDisabledDate: func(d time.Time) bool { return d.Day() == 10 },
		Now:                clockAt("2024-01-15"),
	})

	ctx := context.Background()

	if err := p.Select(ctx, "2024-01-10"); err == nil {
		t.Error("expected custom predicate to reject the date")
	}
	if err := p.Select(ctx, "2024-01-11"); err != nil {
		t.Errorf("Select failed: %v", err)
	}
}

func TestNavigationAcrossWeekendFiresChange(t *testing.T) {
	p := newPicker(t, staticSource{}, nil, Options{
		EnableHolidayMarking: true,
		Now:                  clockAt("2024-01-15"),
	})

	ctx := context.Background()
	if err := p.Select(ctx, "2024-01-05"); err != nil { // Friday
		t.Fatalf("Select failed: %v", err)
	}

	var events []string
	p.OnChange(func(v string) { events = append(events, v) })

	p.NextTradingDay(ctx)

	if got := p.Value(); got != "2024-01-08" {
		t.Errorf("Value() = %q, want 2024-01-08 (Monday)", got)
	}
	if len(events) != 1 || events[0] != "2024-01-08" {
		t.Errorf("change events = %v, want [2024-01-08]", events)
	}

	p.PreviousTradingDay(ctx)
	if got := p.Value(); got != "2024-01-05" {
		t.Errorf("Value() = %q, want 2024-01-05 after back navigation", got)
	}
}

func TestNavigationLoadsHolidayMonthsEagerly(t *testing.T) {
	// 2024-04-01 (Monday) is listed; a jump from the preceding Friday
	// must land on Tuesday the 2nd even though April was never visible.
	src := staticSource{
		"2024-04": {{Date: day("2024-04-01"), Kind: calendar.KindClosure}},
	}
	p := newPicker(t, src, nil, Options{
		EnableHolidayMarking: true,
		Now:                  clockAt("2024-03-29"),
	})

	ctx := context.Background()
	if err := p.Select(ctx, "2024-03-29"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	p.NextTradingDay(ctx)

	if got := p.Value(); got != "2024-04-02" {
		t.Errorf("Value() = %q, want 2024-04-02", got)
	}
}

func TestNavigationNoOpWhenExhausted(t *testing.T) {
	// Every day of Jan-Mar 2024 is closed; the bounded walk finds
	// nothing and the value must stay unchanged.
	src := staticSource{}
	for _, key := range []string{"2024-01", "2024-02", "2024-03"} {
		first := day(key + "-01")
		for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
			src[key] = append(src[key], calendar.DayRecord{Date: d, Kind: calendar.KindClosure})
		}
	}

	p := newPicker(t, src, nil, Options{
		EnableHolidayMarking: true,
		Now:                  clockAt("2024-01-01"),
	})

	ctx := context.Background()

	// Seed the value directly; 2024-01-01 would be rejected by a
	// disabling policy, but none is configured here.
	if err := p.Select(ctx, "2024-01-01"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	var events []string
	p.OnChange(func(v string) { events = append(events, v) })

	p.NextTradingDay(ctx)

	if got := p.Value(); got != "2024-01-01" {
		t.Errorf("Value() = %q, want unchanged 2024-01-01", got)
	}
	if len(events) != 0 {
		t.Errorf("no change events expected on exhausted search, got %v", events)
	}
}

func TestNavigationRespectsFutureBoundary(t *testing.T) {
	p := newPicker(t, staticSource{}, nil, Options{
		EnableHolidayMarking: true,
		DisableFutureDates:   true,
		Now:                  clockAt("2024-01-12"), // Friday
	})

	ctx := context.Background()
	if err := p.Select(ctx, "2024-01-12"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	// The next trading day (Monday the 15th) is in the future.
	p.NextTradingDay(ctx)

	if got := p.Value(); got != "2024-01-12" {
		t.Errorf("Value() = %q, want unchanged at future boundary", got)
	}
}

func TestHolidayMarkingDisabledSkipsPrefetch(t *testing.T) {
	calls := 0
	src := calendar.HolidaySourceFunc(func(ctx context.Context, year, month int) ([]calendar.DayRecord, error) {
		calls++
		return nil, nil
	})

	p := newPicker(t, src, nil, Options{
		EnableHolidayMarking: false,
		Now:                  clockAt("2024-01-15"),
	})

	ctx := context.Background()
	p.SetVisibleMonth(ctx, 2024, 1)
	if err := p.Select(ctx, "2024-01-02"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	p.NextTradingDay(ctx)

	// Give any stray prefetch goroutine a moment to run.
	time.Sleep(20 * time.Millisecond)

	if calls != 0 {
		t.Errorf("expected no fetches with holiday marking disabled, got %d", calls)
	}
}

func TestVisibleMonthPrefetchesAdjacentMonths(t *testing.T) {
	fetched := make(chan string, 9)
	src := calendar.HolidaySourceFunc(func(ctx context.Context, year, month int) ([]calendar.DayRecord, error) {
		fetched <- calendar.MonthKey{Year: year, Month: month}.String()
		return nil, nil
	})

	p := newPicker(t, src, nil, Options{
		EnableHolidayMarking: true,
		Now:                  clockAt("2024-01-15"),
	})

	p.SetVisibleMonth(context.Background(), 2024, 1)

	got := make(map[string]bool)
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case k := <-fetched:
			got[k] = true
		case <-timeout:
			t.Fatalf("prefetch incomplete, saw %v", got)
		}
	}

	for _, want := range []string{"2023-12", "2024-01", "2024-02"} {
		if !got[want] {
			t.Errorf("month %s not prefetched, saw %v", want, got)
		}
	}
}
