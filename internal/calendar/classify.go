package calendar

import "time"

// StyleTag is presentation metadata distinguishing why a calendar cell
// is painted as non-trading.
type StyleTag string

const (
	// TagHoliday marks an authoritative record carrying a reason.
	TagHoliday StyleTag = "holiday"
	// TagClosure marks an authoritative record without a reason.
	TagClosure StyleTag = "closure"
	// TagWeekend marks a Saturday or Sunday.
	TagWeekend StyleTag = "weekend"
)

// DisplayPolicy configures how Classify decides whether a cell is
// selectable. The three rules are ANDed into Disabled: any one of them
// firing disables the date.
type DisplayPolicy struct {
	DisableNonTrading bool
	DisableFuture     bool
	Now               time.Time // reference "today" for DisableFuture
	Custom            func(time.Time) bool
}

// Classification is the display verdict for one calendar cell.
type Classification struct {
	Disabled bool
	Tags     []StyleTag
}

// Classify derives display metadata for a date from the same cached state
// as IsNonTradingDay. It is pure over the cache and never fetches.
func (r *Resolver) Classify(t time.Time, p DisplayPolicy) Classification {
	d := r.normalize(t)

	var tags []StyleTag
	rec, listed := r.Lookup(d)
	if listed {
		if rec.Reason != "" || rec.Kind == KindHoliday {
			tags = append(tags, TagHoliday)
		} else {
			tags = append(tags, TagClosure)
		}
	}
	if IsWeekend(d) {
		tags = append(tags, TagWeekend)
	}

	disabled := false
	if p.DisableNonTrading && (listed || IsWeekend(d)) {
		disabled = true
	}
	if p.DisableFuture && !p.Now.IsZero() && d.After(Normalize(p.Now.In(r.loc))) {
		disabled = true
	}
	if p.Custom != nil && p.Custom(d) {
		disabled = true
	}

	return Classification{Disabled: disabled, Tags: tags}
}
