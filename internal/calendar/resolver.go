package calendar

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// HolidaySource supplies authoritative non-trading days for one month.
// An empty slice is a valid answer (a month with no closures); an error
// leaves the month unresolved so a later call can retry.
type HolidaySource interface {
	NonTradingDays(ctx context.Context, year, month int) ([]DayRecord, error)
}

// HolidaySourceFunc adapts a function to the HolidaySource interface.
type HolidaySourceFunc func(ctx context.Context, year, month int) ([]DayRecord, error)

// NonTradingDays calls f.
func (f HolidaySourceFunc) NonTradingDays(ctx context.Context, year, month int) ([]DayRecord, error) {
	return f(ctx, year, month)
}

// searchBound caps the day-by-day walk of NextTradingDay and
// PreviousTradingDay at roughly two months, guarding against
// pathological all-non-trading data.
const searchBound = 60

// Resolver answers "is this date a trading day" and nearest-trading-day
// queries against a lazily populated, month-keyed cache of authoritative
// non-trading-day data. Months not yet fetched fall back to the
// weekend-only rule. One Resolver is owned by one widget instance; the
// cache is never shared across instances.
type Resolver struct {
	source HolidaySource
	logger *logger.Logger
	loc    *time.Location

	mu sync.RWMutex
	// cache presence means the month's fetch completed, even with an
	// empty result. Absence means "not yet known", not "no holidays".
	cache map[MonthKey]map[string]DayRecord

	group singleflight.Group
}

// NewResolver creates a resolver over the given source. Dates are
// normalized in loc; pass nil for time.Local.
func NewResolver(source HolidaySource, log *logger.Logger, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{
		source: source,
		logger: log.WithComponent("calendar"),
		loc:    loc,
		cache:  make(map[MonthKey]map[string]DayRecord),
	}
}

// Location returns the resolver's normalization location.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// normalize pins t to noon in the resolver's location.
func (r *Resolver) normalize(t time.Time) time.Time {
	return Normalize(t.In(r.loc))
}

// EnsureMonthLoaded fetches the month's authoritative data unless it is
// already cached. Concurrent calls for the same month are collapsed into
// a single upstream request; callers all see its outcome. A failed fetch
// is not cached, so the month stays unresolved and a later call retries.
func (r *Resolver) EnsureMonthLoaded(ctx context.Context, year, month int) error {
	key := NewMonthKey(year, month)

	r.mu.RLock()
	_, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return nil
	}

	_, err, _ := r.group.Do(key.String(), func() (interface{}, error) {
		// A caller that queued behind the winning fetch sees the
		// cache populated; don't hit the source again.
		r.mu.RLock()
		_, ok := r.cache[key]
		r.mu.RUnlock()
		if ok {
			return nil, nil
		}

		records, err := r.source.NonTradingDays(ctx, key.Year, key.Month)
		if err != nil {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"year":  key.Year,
				"month": key.Month,
			}).Warn("Holiday fetch failed, month left unresolved")
			return nil, err
		}

		entry := make(map[string]DayRecord, len(records))
		for _, rec := range records {
			rec.Date = r.normalize(rec.Date)
			entry[rec.Date.Format(dateLayout)] = rec
		}

		r.mu.Lock()
		r.cache[key] = entry
		r.mu.Unlock()

		r.logger.WithFields(map[string]interface{}{
			"year":  key.Year,
			"month": key.Month,
			"count": len(entry),
		}).Debug("Month resolved")

		return nil, nil
	})

	return err
}

// IsResolved reports whether the month's authoritative data is cached.
func (r *Resolver) IsResolved(year, month int) bool {
	key := NewMonthKey(year, month)

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cache[key]
	return ok
}

// Lookup returns the authoritative record for a date, if its month (or an
// adjacent month) has been resolved and lists it.
func (r *Resolver) Lookup(t time.Time) (DayRecord, bool) {
	d := r.normalize(t)
	key := MonthKeyOf(d)
	ds := d.Format(dateLayout)

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Calendar grids render spill-over days of the neighboring months,
	// so the date may have been cached under an adjacent key.
	for _, k := range [3]MonthKey{key, key.Prev(), key.Next()} {
		if entry, ok := r.cache[k]; ok {
			if rec, listed := entry[ds]; listed {
				return rec, true
			}
		}
	}
	return DayRecord{}, false
}

// IsNonTradingDay reports whether the date is a non-trading day given the
// currently cached state. Authoritative records win regardless of weekday;
// otherwise the weekend rule applies, whether or not the month has been
// resolved. This never triggers a fetch.
func (r *Resolver) IsNonTradingDay(t time.Time) bool {
	if _, listed := r.Lookup(t); listed {
		return true
	}
	return IsWeekend(r.normalize(t))
}

// NextTradingDay walks forward from `from` (exclusive) and returns the
// first trading day, or false if none is found within the search bound.
// Months are not loaded on the way; see Advance for the eager variant.
func (r *Resolver) NextTradingDay(from time.Time) (time.Time, bool) {
	return r.step(from, 1)
}

// PreviousTradingDay is the backward counterpart of NextTradingDay.
func (r *Resolver) PreviousTradingDay(from time.Time) (time.Time, bool) {
	return r.step(from, -1)
}

func (r *Resolver) step(from time.Time, dir int) (time.Time, bool) {
	d := r.normalize(from)
	for i := 0; i < searchBound; i++ {
		d = d.AddDate(0, 0, dir)
		if !r.IsNonTradingDay(d) {
			return d, true
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"from":      r.normalize(from).Format(dateLayout),
		"direction": dir,
		"bound":     searchBound,
	}).Warn("No trading day found within search bound")

	return time.Time{}, false
}

// Advance walks like NextTradingDay (dir=+1) or PreviousTradingDay
// (dir=-1) but ensures each month the walk enters is loaded first, so a
// jump spanning a not-yet-visited month keeps authoritative accuracy
// instead of degrading to the weekend rule. Fetch failures are logged by
// EnsureMonthLoaded and the affected month falls back to weekends only.
func (r *Resolver) Advance(ctx context.Context, from time.Time, dir int) (time.Time, bool) {
	d := r.normalize(from)
	for i := 0; i < searchBound; i++ {
		d = d.AddDate(0, 0, dir)

		key := MonthKeyOf(d)
		_ = r.EnsureMonthLoaded(ctx, key.Year, key.Month)

		if !r.IsNonTradingDay(d) {
			return d, true
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"from":      r.normalize(from).Format(dateLayout),
		"direction": dir,
		"bound":     searchBound,
	}).Warn("No trading day found within search bound")

	return time.Time{}, false
}

// Reset discards all cached months. Used when the owning widget is
// re-initialized; entries are never evicted individually.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[MonthKey]map[string]DayRecord)
}

// CachedMonths returns how many months have been resolved.
func (r *Resolver) CachedMonths() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
