// Package picker models the trading-day-aware date picker widget: a
// nullable selected value bound to one of three textual encodings, a
// visible month driving cache prefetch, and prev/next trading-day
// navigation backed by the calendar resolver.
package picker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wenhao/stockboard/backend/internal/calendar"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// LatestDateSource supplies the most recent known trading date, used to
// seed the picker on mount.
type LatestDateSource interface {
	LatestTradingDate(ctx context.Context) (time.Time, error)
}

// Options configures picker behavior. The zero value enables holiday
// marking with the dashed value format and no disabling rules.
type Options struct {
	// EnableHolidayMarking controls whether authoritative data is
	// fetched and applied at all; when false the picker never prefetches
	// and classification degrades to the weekend rule.
	EnableHolidayMarking bool

	// DisableNonTradingDays makes non-trading dates unselectable.
	DisableNonTradingDays bool

	// DisableFutureDates makes dates after "now" unselectable.
	DisableFutureDates bool

	// CustomDisabledDate is an additional caller-supplied disabling
	// rule, ANDed into the disabling logic alongside the above.
	CustomDisabledDate func(time.Time) bool

	// ValueFormat selects the bound value's textual encoding.
	ValueFormat calendar.ValueFormat

	// Now is the clock used for the future-date rule; defaults to
	// time.Now.
	Now func() time.Time
}

// Validate rejects option combinations the picker cannot honor.
func (o Options) Validate() error {
	if o.ValueFormat < calendar.FormatDashed || o.ValueFormat > calendar.FormatSlashed {
		return fmt.Errorf("unknown value format %d", o.ValueFormat)
	}
	return nil
}

// Picker is the widget-side navigation state. One picker owns one
// resolver instance; nothing is shared across widgets.
type Picker struct {
	resolver *calendar.Resolver
	latest   LatestDateSource
	opts     Options
	logger   *logger.Logger

	mu       sync.Mutex
	value    time.Time // zero means no selection
	visible  calendar.MonthKey
	loading  bool
	onChange []func(value string)
}

// New creates a picker over the given resolver. latest may be nil when
// no seed endpoint is available.
func New(resolver *calendar.Resolver, latest LatestDateSource, opts Options, log *logger.Logger) *Picker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Picker{
		resolver: resolver,
		latest:   latest,
		opts:     opts,
		logger:   log.WithComponent("picker"),
	}
}

// OnChange registers a callback fired after the value is normalized and
// validated. The callback receives the encoded value.
func (p *Picker) OnChange(fn func(value string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// Value returns the encoded selected value, or "" when nothing is
// selected.
func (p *Picker) Value() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.value.IsZero() {
		return ""
	}
	return p.opts.ValueFormat.Format(p.value)
}

// SelectedDate returns the selected date and whether one is set.
func (p *Picker) SelectedDate() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, !p.value.IsZero()
}

// Loading reports whether a navigation or init is resolving; the
// presentation layer disables controls while true.
func (p *Picker) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Init seeds the picker from the latest-trading-date contract and
// prefetches the visible month window. When the seed endpoint fails the
// picker falls back to the most recent weekend-rule trading day.
func (p *Picker) Init(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	seed := calendar.Normalize(p.opts.Now().In(p.resolver.Location()))

	if p.latest != nil {
		if d, err := p.latest.LatestTradingDate(ctx); err != nil {
			p.logger.WithError(err).Warn("Latest trading date unavailable, falling back to local rule")
		} else {
			seed = calendar.Normalize(d.In(p.resolver.Location()))
		}
	}

	if p.resolver.IsNonTradingDay(seed) {
		prev, ok := p.resolver.PreviousTradingDay(seed)
		if !ok {
			return fmt.Errorf("no trading day found near %s", seed.Format("2006-01-02"))
		}
		seed = prev
	}

	p.setValue(seed)
	p.SetVisibleMonth(ctx, seed.Year(), int(seed.Month()))
	return nil
}

// SetVisibleMonth records the month the calendar panel shows and
// prefetches it together with both adjacent months. Prefetch errors are
// logged by the resolver and never surfaced; the affected months stay
// on the weekend rule until retried.
func (p *Picker) SetVisibleMonth(ctx context.Context, year, month int) {
	key := calendar.NewMonthKey(year, month)

	p.mu.Lock()
	p.visible = key
	p.mu.Unlock()

	if !p.opts.EnableHolidayMarking {
		return
	}

	for _, k := range [3]calendar.MonthKey{key.Prev(), key, key.Next()} {
		go func(k calendar.MonthKey) {
			_ = p.resolver.EnsureMonthLoaded(ctx, k.Year, k.Month)
		}(k)
	}
}

// VisibleMonth returns the month the panel currently shows.
func (p *Picker) VisibleMonth() calendar.MonthKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Select parses raw in any supported encoding, validates it against the
// disabling policy, and commits it. A disabled date is a caller error
// and leaves the value unchanged.
func (p *Picker) Select(ctx context.Context, raw string) error {
	d, err := calendar.ParseDate(raw, p.resolver.Location())
	if err != nil {
		return err
	}

	if p.opts.EnableHolidayMarking {
		key := calendar.MonthKeyOf(d)
		_ = p.resolver.EnsureMonthLoaded(ctx, key.Year, key.Month)
	}

	if c := p.resolver.Classify(d, p.policy()); c.Disabled {
		return fmt.Errorf("date %s is not selectable", d.Format("2006-01-02"))
	}

	p.setValue(d)
	return nil
}

// Classify returns display metadata for one calendar cell.
func (p *Picker) Classify(d time.Time) calendar.Classification {
	return p.resolver.Classify(d, p.policy())
}

// NextTradingDay moves the selection to the next trading day. The jump
// resolves fully (months loaded eagerly) before the new value is
// emitted; an exhausted search is a logged no-op.
func (p *Picker) NextTradingDay(ctx context.Context) {
	p.navigate(ctx, 1)
}

// PreviousTradingDay moves the selection to the previous trading day.
func (p *Picker) PreviousTradingDay(ctx context.Context) {
	p.navigate(ctx, -1)
}

func (p *Picker) navigate(ctx context.Context, dir int) {
	p.setLoading(true)
	defer p.setLoading(false)

	p.mu.Lock()
	from := p.value
	p.mu.Unlock()

	if from.IsZero() {
		from = calendar.Normalize(p.opts.Now().In(p.resolver.Location()))
	}

	var (
		d  time.Time
		ok bool
	)
	if p.opts.EnableHolidayMarking {
		d, ok = p.resolver.Advance(ctx, from, dir)
	} else {
		if dir > 0 {
			d, ok = p.resolver.NextTradingDay(from)
		} else {
			d, ok = p.resolver.PreviousTradingDay(from)
		}
	}
	if !ok {
		// Value stays unchanged; the resolver already warned.
		return
	}

	if p.opts.DisableFutureDates && dir > 0 {
		today := calendar.Normalize(p.opts.Now().In(p.resolver.Location()))
		if d.After(today) {
			p.logger.WithField("date", d.Format("2006-01-02")).Debug("Navigation blocked at future boundary")
			return
		}
	}

	p.setValue(d)
	p.SetVisibleMonth(ctx, d.Year(), int(d.Month()))
}

// setValue commits the value and fires change callbacks outside the lock.
func (p *Picker) setValue(d time.Time) {
	p.mu.Lock()
	p.value = d
	encoded := p.opts.ValueFormat.Format(d)
	callbacks := make([]func(string), len(p.onChange))
	copy(callbacks, p.onChange)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(encoded)
	}
}

func (p *Picker) setLoading(v bool) {
	p.mu.Lock()
	p.loading = v
	p.mu.Unlock()
}

func (p *Picker) policy() calendar.DisplayPolicy {
	return calendar.DisplayPolicy{
		DisableNonTrading: p.opts.DisableNonTradingDays,
		DisableFuture:     p.opts.DisableFutureDates,
		Now:               p.opts.Now(),
		Custom:            p.opts.CustomDisabledDate,
	}
}
