package calendar

import (
	"time"

	"divrotation/internal/util"
)

// Resolver classifies trading days for one exchange and steps dates across
// them. When no holiday data is available it degrades to the pure weekend
// rule; the degraded mode is observable via Approximate so downstream
// reporting can disclose the reduced precision. The resolver itself never
// fails.
type Resolver struct {
	holidays    map[string]struct{}
	approximate bool
}

// NewResolver builds a resolver from the exchange holiday set. An empty set
// means holiday data was unavailable upstream and puts the resolver in
// weekend-only approximate mode.
func NewResolver(holidays []time.Time) *Resolver {
	set := map[string]struct{}{}
	for _, h := range holidays {
		set[util.DateKey(h)] = struct{}{}
	}
	return &Resolver{
		holidays:    set,
		approximate: len(set) == 0,
	}
}

// Approximate reports whether the resolver is running on the weekend-only
// fallback rule.
func (r *Resolver) Approximate() bool {
	return r.approximate
}

func (r *Resolver) IsTradingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := r.holidays[util.DateKey(d)]
	return !holiday
}

// Shift steps n trading days forward (n > 0) or backward (n < 0) from d,
// skipping weekends and holidays. n = 0 returns d unchanged even when d
// itself is not a trading day; callers validate the anchor.
func (r *Resolver) Shift(d time.Time, n int) time.Time {
	d = util.Truncate(d)
	if n == 0 {
		return d
	}
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for remaining := n; remaining > 0; {
		d = d.AddDate(0, 0, step)
		if r.IsTradingDay(d) {
			remaining--
		}
	}
	return d
}

// DaysBetween counts trading days strictly after from, through to inclusive.
// Returns 0 when to is not after from.
func (r *Resolver) DaysBetween(from, to time.Time) int {
	from = util.Truncate(from)
	to = util.Truncate(to)
	count := 0
	for d := from.AddDate(0, 0, 1); util.DateLte(d, to); d = d.AddDate(0, 0, 1) {
		if r.IsTradingDay(d) {
			count++
		}
	}
	return count
}
