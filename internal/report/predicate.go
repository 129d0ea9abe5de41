package report

import (
	"strings"
	"time"
)

// Predicate decides whether a record passes one filter.
type Predicate[T any] interface {
	Match(T) bool
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc[T any] func(T) bool

func (f PredicateFunc[T]) Match(v T) bool { return f(v) }

// Substring matches when any field returned by Fields contains
// Needle, ignoring case.
type Substring[T any] struct {
	Needle string
	Fields func(T) []string
}

func (p Substring[T]) Match(v T) bool {
	needle := strings.ToLower(p.Needle)
	for _, f := range p.Fields(v) {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Overlap matches records whose [start, end] interval intersects
// Range.
type Overlap[T any] struct {
	Range DateRange
	Span  func(T) (start, end time.Time)
}

func (p Overlap[T]) Match(v T) bool {
	start, end := p.Span(v)
	return p.Range.Overlaps(start, end)
}

// Within matches records whose instant lies inside Range.
type Within[T any] struct {
	Range DateRange
	At    func(T) time.Time
}

func (p Within[T]) Match(v T) bool {
	return p.Range.Contains(p.At(v))
}

// AtLeast matches records whose Value is >= Min.
type AtLeast[T any] struct {
	Min   int
	Value func(T) int
}

func (p AtLeast[T]) Match(v T) bool {
	return p.Value(v) >= p.Min
}

// Equals matches when any value returned by Values equals Want.
type Equals[T any] struct {
	Want   string
	Values func(T) []string
}

func (p Equals[T]) Match(v T) bool {
	for _, got := range p.Values(v) {
		if got == p.Want {
			return true
		}
	}
	return false
}

// Presence selects records by whether a text field is blank.
type Presence[T any] struct {
	Want  MessagePresence
	Value func(T) string
}

func (p Presence[T]) Match(v T) bool {
	has := strings.TrimSpace(p.Value(v)) != ""
	switch p.Want {
	case WithMessage:
		return has
	case WithoutMessage:
		return !has
	default:
		return true
	}
}

// All AND-folds preds. An empty list matches everything.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return PredicateFunc[T](func(v T) bool {
		for _, p := range preds {
			if !p.Match(v) {
				return false
			}
		}
		return true
	})
}

// Apply returns a new slice with the records matching every
// predicate, in input order. The input is not modified.
func Apply[T any](records []T, preds ...Predicate[T]) []T {
	match := All(preds...)
	out := make([]T, 0, len(records))
	for _, r := range records {
		if match.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
