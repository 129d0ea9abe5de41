package report

import (
	"errors"
	"time"

	"github.com/wesm/leadsview/internal/timeutil"
)

// ErrUnboundedRange is returned when a daily series is requested
// without both range bounds resolved.
var ErrUnboundedRange = errors.New("date range must have both bounds")

// DailyBucket holds one calendar day's event counts.
type DailyBucket struct {
	Day               string `json:"date"`
	LeadCount         int    `json:"leads"`
	ConversationCount int    `json:"conversations"`
}

// Aggregate returns one bucket per calendar day in r, ascending,
// including days with no events. Events whose day falls outside
// r are ignored.
func Aggregate(
	leads []LeadRecord, messages []MessageEvent, r DateRange,
) ([]DailyBucket, error) {
	if !r.Bounded() {
		return nil, ErrUnboundedRange
	}

	days := timeutil.EnumerateDays(r.From, r.To)
	buckets := make([]DailyBucket, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		buckets[i] = DailyBucket{Day: d}
		index[d] = i
	}

	for _, l := range leads {
		if i, ok := index[timeutil.DayKey(l.OccurredAt)]; ok {
			buckets[i].LeadCount++
		}
	}
	for _, m := range messages {
		if i, ok := index[timeutil.DayKey(m.OccurredAt)]; ok {
			buckets[i].ConversationCount++
		}
	}
	return buckets, nil
}

// Dashboard is the overview shown on the landing page.
type Dashboard struct {
	Range              DateRange     `json:"range"`
	Series             []DailyBucket `json:"series"`
	TotalLeads         int           `json:"total_leads"`
	TotalConversations int           `json:"total_conversations"`
}

// BuildDashboard narrows both streams to r by instant and folds
// them into a daily series with totals.
func BuildDashboard(
	leads []LeadRecord, messages []MessageEvent, r DateRange,
) (Dashboard, error) {
	if !r.Bounded() {
		return Dashboard{}, ErrUnboundedRange
	}
	inLeads := Apply(leads, Predicate[LeadRecord](Within[LeadRecord]{
		Range: r,
		At:    func(l LeadRecord) time.Time { return l.OccurredAt },
	}))
	inMsgs := Apply(messages, Predicate[MessageEvent](Within[MessageEvent]{
		Range: r,
		At:    func(m MessageEvent) time.Time { return m.OccurredAt },
	}))

	series, err := Aggregate(inLeads, inMsgs, r)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Range:              r,
		Series:             series,
		TotalLeads:         len(inLeads),
		TotalConversations: len(inMsgs),
	}, nil
}
