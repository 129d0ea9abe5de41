package report

import (
	"math"
	"slices"
	"strings"
)

// SessionReport is the conversations view for one tenant.
type SessionReport struct {
	Sessions          []SessionSummary `json:"sessions"`
	Total             int              `json:"total"`
	FilteredCount     int              `json:"filtered_count"`
	ActiveFilterCount int              `json:"active_filter_count"`
	ActiveFilters     []ActiveFilter   `json:"active_filters"`
	TotalMessages     int              `json:"total_messages"`
	AvgPerSession     int              `json:"avg_per_session"`
}

// BuildSessionReport groups events into sessions, then filters
// and orders them. Totals describe the unfiltered set.
func BuildSessionReport(events []MessageEvent, f SessionFilter) SessionReport {
	idx := GroupBySession(events)
	sessions := f.Apply(idx.Summaries())

	total := idx.Len()
	msgs := idx.TotalMessages()
	avg := 0
	if total > 0 {
		avg = int(math.Round(float64(msgs) / float64(total)))
	}
	return SessionReport{
		Sessions:          sessions,
		Total:             total,
		FilteredCount:     len(sessions),
		ActiveFilterCount: f.ActiveCount(),
		ActiveFilters:     f.ActiveFilters(),
		TotalMessages:     msgs,
		AvgPerSession:     avg,
	}
}

// LeadReport is the leads view for one tenant.
type LeadReport struct {
	Leads             []LeadRecord   `json:"leads"`
	Total             int            `json:"total"`
	FilteredCount     int            `json:"filtered_count"`
	ActiveFilterCount int            `json:"active_filter_count"`
	ActiveFilters     []ActiveFilter `json:"active_filters"`
	Sources           []string       `json:"sources"`
}

// BuildLeadReport filters and orders leads.
func BuildLeadReport(leads []LeadRecord, f LeadFilter) LeadReport {
	filtered := f.Apply(leads)
	return LeadReport{
		Leads:             filtered,
		Total:             len(leads),
		FilteredCount:     len(filtered),
		ActiveFilterCount: f.ActiveCount(),
		ActiveFilters:     f.ActiveFilters(),
		Sources:           Sources(leads),
	}
}

// Sources returns the distinct non-empty lead sources, sorted
// case-insensitively.
func Sources(leads []LeadRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range leads {
		if l.Source == "" || seen[l.Source] {
			continue
		}
		seen[l.Source] = true
		out = append(out, l.Source)
	}
	slices.SortStableFunc(out, func(a, b string) int {
		if c := compareFold(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
