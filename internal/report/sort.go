package report

import (
	"cmp"
	"slices"
	"strings"
)

// Order is a sort direction.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// ParseOrder accepts "asc"/"desc" in any case; anything else is
// ascending.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Descending)) {
		return Descending
	}
	return Ascending
}

// SessionSortKey selects the session ordering. The empty key
// keeps the input order.
type SessionSortKey string

const (
	SortByLastActivity SessionSortKey = "last_activity"
	SortByMessageCount SessionSortKey = "messages"
	SortBySessionID    SessionSortKey = "session_id"
)

// LeadSortKey selects the lead ordering. The empty key keeps
// the input order.
type LeadSortKey string

const (
	SortByCreatedAt LeadSortKey = "created_at"
	SortByName      LeadSortKey = "name"
	SortBySource    LeadSortKey = "source"
)

// ParseSessionSortKey returns the key for s, or "" when s is
// not a known key.
func ParseSessionSortKey(s string) SessionSortKey {
	switch k := SessionSortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortByLastActivity, SortByMessageCount, SortBySessionID:
		return k
	default:
		return ""
	}
}

// ParseLeadSortKey returns the key for s, or "" when s is not a
// known key.
func ParseLeadSortKey(s string) LeadSortKey {
	switch k := LeadSortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortByCreatedAt, SortByName, SortBySource:
		return k
	default:
		return ""
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func sessionComparator(key SessionSortKey) func(a, b SessionSummary) int {
	switch key {
	case SortByLastActivity:
		return func(a, b SessionSummary) int { return a.LastAt.Compare(b.LastAt) }
	case SortByMessageCount:
		return func(a, b SessionSummary) int { return cmp.Compare(a.Count, b.Count) }
	case SortBySessionID:
		return func(a, b SessionSummary) int { return compareFold(a.SessionID, b.SessionID) }
	default:
		return nil
	}
}

func leadComparator(key LeadSortKey) func(a, b LeadRecord) int {
	switch key {
	case SortByCreatedAt:
		return func(a, b LeadRecord) int { return a.OccurredAt.Compare(b.OccurredAt) }
	case SortByName:
		return func(a, b LeadRecord) int { return compareFold(a.Name, b.Name) }
	case SortBySource:
		return func(a, b LeadRecord) int { return compareFold(a.Source, b.Source) }
	default:
		return nil
	}
}

// SortSessions returns a stably sorted copy of sessions.
func SortSessions(sessions []SessionSummary, key SessionSortKey, order Order) []SessionSummary {
	return sortStable(sessions, sessionComparator(key), order)
}

// SortLeads returns a stably sorted copy of leads.
func SortLeads(leads []LeadRecord, key LeadSortKey, order Order) []LeadRecord {
	return sortStable(leads, leadComparator(key), order)
}

// sortStable copies records and sorts the copy. Descending
// negates the comparator instead of reversing the result, so
// records with equal keys keep their input order either way.
func sortStable[T any](records []T, compare func(a, b T) int, order Order) []T {
	out := slices.Clone(records)
	if compare == nil {
		return out
	}
	if order == Descending {
		asc := compare
		compare = func(a, b T) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, compare)
	return out
}
