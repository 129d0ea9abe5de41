package report

import (
	"strings"
	"time"

	"github.com/wesm/leadsview/internal/timeutil"
)

// DateRange bounds a query by instant. A zero From or To means
// the range is open on that side. Inverted ranges are accepted
// and simply match nothing.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// HasFrom reports whether the lower bound is set.
func (r DateRange) HasFrom() bool { return !r.From.IsZero() }

// HasTo reports whether the upper bound is set.
func (r DateRange) HasTo() bool { return !r.To.IsZero() }

// IsZero reports whether the range is unbounded on both sides.
func (r DateRange) IsZero() bool { return !r.HasFrom() && !r.HasTo() }

// Bounded reports whether both bounds are set.
func (r DateRange) Bounded() bool { return r.HasFrom() && r.HasTo() }

// Contains reports whether t lies in [From, To], treating an
// absent bound as unconstrained.
func (r DateRange) Contains(t time.Time) bool {
	if r.HasFrom() && t.Before(r.From) {
		return false
	}
	if r.HasTo() && t.After(r.To) {
		return false
	}
	return true
}

// Inverted reports whether both bounds are set with From after To.
func (r DateRange) Inverted() bool {
	return r.Bounded() && r.From.After(r.To)
}

// Overlaps reports whether [start, end] intersects the range. An
// inverted range overlaps nothing, even a span that covers it.
func (r DateRange) Overlaps(start, end time.Time) bool {
	if r.Inverted() {
		return false
	}
	if r.HasFrom() && end.Before(r.From) {
		return false
	}
	if r.HasTo() && start.After(r.To) {
		return false
	}
	return true
}

// Equal compares bounds by instant.
func (r DateRange) Equal(o DateRange) bool {
	return r.From.Equal(o.From) && r.To.Equal(o.To)
}

// Preset names.
const (
	PresetToday      = "today"
	PresetLast7Days  = "last7days"
	PresetLast30Days = "last30days"
	PresetThisMonth  = "thismonth"
)

// Preset is a named range computed from the current instant.
// Every preset returns both bounds.
type Preset struct {
	Name    string
	Label   string
	Resolve func(now time.Time) DateRange
}

var presets = []Preset{
	{Name: PresetToday, Label: "Oggi", Resolve: Today},
	{Name: PresetLast7Days, Label: "Ultimi 7 giorni", Resolve: Last7Days},
	{Name: PresetLast30Days, Label: "Ultimi 30 giorni", Resolve: Last30Days},
	{Name: PresetThisMonth, Label: "Questo mese", Resolve: ThisMonth},
}

// Presets returns the preset catalog in display order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// ResolvePreset looks up a preset by name (case-insensitive)
// and resolves it against now.
func ResolvePreset(name string, now time.Time) (DateRange, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if p.Name == name {
			return p.Resolve(now), true
		}
	}
	return DateRange{}, false
}

// Today spans the start of today to the start of tomorrow. The
// upper bound is the next midnight, not 23:59:59.999 like the
// other presets; callers relying on symmetry must not use it.
func Today(now time.Time) DateRange {
	start := timeutil.StartOfDay(now)
	return DateRange{From: start, To: start.AddDate(0, 0, 1)}
}

// Last7Days spans today and the six days before it.
func Last7Days(now time.Time) DateRange {
	return lastNDays(now, 7)
}

// Last30Days spans today and the 29 days before it.
func Last30Days(now time.Time) DateRange {
	return lastNDays(now, 30)
}

func lastNDays(now time.Time, n int) DateRange {
	return DateRange{
		From: timeutil.StartOfDay(now.AddDate(0, 0, -(n - 1))),
		To:   timeutil.EndOfDay(now),
	}
}

// ThisMonth spans the whole calendar month containing now.
func ThisMonth(now time.Time) DateRange {
	y, m, _ := now.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	// Day 0 of next month is the last day of this one.
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, now.Location())
	return DateRange{From: first, To: timeutil.EndOfDay(last)}
}

// CustomRange builds a range from two YYYY-MM-DD strings parsed
// in loc. from snaps to the start of its day and to to the end
// of its day. An empty or unparsable side is left open.
func CustomRange(from, to string, loc *time.Location) DateRange {
	var r DateRange
	if t, ok := timeutil.ParseDay(strings.TrimSpace(from), loc); ok {
		r.From = timeutil.StartOfDay(t)
	}
	if t, ok := timeutil.ParseDay(strings.TrimSpace(to), loc); ok {
		r.To = timeutil.EndOfDay(t)
	}
	return r
}

// ResolveRange picks the preset when it names a known one and
// falls back to the custom bounds otherwise.
func ResolveRange(
	preset, from, to string, now time.Time, loc *time.Location,
) DateRange {
	if r, ok := ResolvePreset(preset, now); ok {
		return r
	}
	return CustomRange(from, to, loc)
}
