package util

import (
	"time"
)

const layout = "2006-01-02"

// NewDate returns midnight UTC for the given calendar day. All dates in the
// engine are day-granular and normalized this way.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops any intra-day component, keeping the UTC calendar day.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func DateLte(t1, t2 time.Time) bool {
	return t1.Before(t2) || t1.Format(layout) == t2.Format(layout)
}

// DateKey formats a date the way price and holiday maps are keyed.
func DateKey(t time.Time) string {
	return t.Format(layout)
}

// ParseDate parses a YYYY-MM-DD string into a midnight UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(layout, s)
}
