// Package timeutil holds timestamp formatting and calendar-day
// helpers shared by the store, the report engine, and the HTTP
// layer.
package timeutil

import (
	"time"
)

// DayLayout is the canonical calendar-day key layout.
const DayLayout = "2006-01-02"

// Format returns t as an RFC3339Nano string in UTC, or "" for
// the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Ptr is like Format but returns nil for the zero time.
func Ptr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := Format(t)
	return &s
}

// Parse accepts RFC3339 timestamps with or without fractional
// seconds, plus the space-separated form some exports use.
func Parse(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayKey returns the calendar day of t in t's own location. No
// timezone conversion happens here.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string at midnight in loc. A nil
// loc means UTC.
func ParseDay(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// StartOfDay returns 00:00:00.000 of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's day. Millisecond
// precision matches the bounds clients send back.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(
		y, m, d, 23, 59, 59, int(999*time.Millisecond),
		t.Location(),
	)
}

// EnumerateDays returns one day key per calendar day from
// from's day through to's day, inclusive. It returns nil when
// to is before from.
func EnumerateDays(from, to time.Time) []string {
	if to.Before(from) {
		return nil
	}
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	// Iterate in UTC so DST transitions never skip or repeat a day.
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayLayout))
	}
	return days
}
