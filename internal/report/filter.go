package report

import (
	"strconv"
	"strings"
	"time"
)

// MessagePresence selects leads by whether they left a message.
type MessagePresence string

const (
	AnyMessage     MessagePresence = "all"
	WithMessage    MessagePresence = "with"
	WithoutMessage MessagePresence = "without"
)

// ParseMessagePresence maps user input to a selector. Anything
// unrecognized selects all leads.
func ParseMessagePresence(s string) MessagePresence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "with", "with-message", "true", "yes":
		return WithMessage
	case "without", "without-message", "false", "no":
		return WithoutMessage
	default:
		return AnyMessage
	}
}

func (p MessagePresence) active() bool {
	return p == WithMessage || p == WithoutMessage
}

// ActiveFilter describes one non-default filter field, used to
// render removable badges.
type ActiveFilter struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// SessionFilter is the filter and ordering state of the
// conversations view. The zero value filters nothing and keeps
// the grouping order. Setters return a modified copy.
type SessionFilter struct {
	Search      string         `json:"search,omitempty"`
	Range       DateRange      `json:"range"`
	MinMessages int            `json:"min_messages,omitempty"`
	Sender      string         `json:"sender,omitempty"` // "" or "all" disables
	Sort        SessionSortKey `json:"sort,omitempty"`
	Order       Order          `json:"order,omitempty"`
}

func (f SessionFilter) WithSearch(s string) SessionFilter {
	f.Search = s
	return f
}

func (f SessionFilter) WithRange(r DateRange) SessionFilter {
	f.Range = r
	return f
}

func (f SessionFilter) WithMinMessages(n int) SessionFilter {
	f.MinMessages = n
	return f
}

func (f SessionFilter) WithSender(s string) SessionFilter {
	f.Sender = s
	return f
}

func (f SessionFilter) WithSort(key SessionSortKey, order Order) SessionFilter {
	f.Sort = key
	f.Order = order
	return f
}

func (f SessionFilter) senderActive() bool {
	s := strings.TrimSpace(f.Sender)
	return s != "" && !strings.EqualFold(s, "all")
}

// Predicates returns the active predicates in a fixed order.
func (f SessionFilter) Predicates() []Predicate[SessionSummary] {
	var preds []Predicate[SessionSummary]
	if f.Search != "" {
		preds = append(preds, Substring[SessionSummary]{
			Needle: f.Search,
			Fields: sessionSearchFields,
		})
	}
	if !f.Range.IsZero() {
		preds = append(preds, Overlap[SessionSummary]{
			Range: f.Range,
			Span: func(s SessionSummary) (time.Time, time.Time) {
				return s.FirstAt, s.LastAt
			},
		})
	}
	if f.MinMessages > 0 {
		preds = append(preds, AtLeast[SessionSummary]{
			Min:   f.MinMessages,
			Value: func(s SessionSummary) int { return s.Count },
		})
	}
	if f.senderActive() {
		preds = append(preds, Equals[SessionSummary]{
			Want:   string(ParseSender(f.Sender)),
			Values: sessionSenders,
		})
	}
	return preds
}

// ActiveFilters lists every non-default filter field.
func (f SessionFilter) ActiveFilters() []ActiveFilter {
	var out []ActiveFilter
	if f.Search != "" {
		out = append(out, ActiveFilter{Field: "search", Label: "Ricerca", Value: f.Search})
	}
	if !f.Range.IsZero() {
		out = append(out, ActiveFilter{Field: "range", Label: "Periodo", Value: describeRange(f.Range)})
	}
	if f.MinMessages > 0 {
		out = append(out, ActiveFilter{
			Field: "min_messages", Label: "Messaggi min.",
			Value: strconv.Itoa(f.MinMessages),
		})
	}
	if f.senderActive() {
		out = append(out, ActiveFilter{
			Field: "sender", Label: "Mittente",
			Value: ParseSender(f.Sender).Label(),
		})
	}
	return out
}

// ActiveCount returns the number of non-default filter fields.
func (f SessionFilter) ActiveCount() int {
	return len(f.ActiveFilters())
}

// Apply filters sessions and orders the result. The input slice
// is left untouched.
func (f SessionFilter) Apply(sessions []SessionSummary) []SessionSummary {
	return SortSessions(Apply(sessions, f.Predicates()...), f.Sort, f.Order)
}

func sessionSearchFields(s SessionSummary) []string {
	fields := make([]string, 0, 1+2*len(s.Messages))
	fields = append(fields, s.SessionID)
	for _, m := range s.Messages {
		fields = append(fields, m.Text, string(m.Sender))
	}
	return fields
}

func sessionSenders(s SessionSummary) []string {
	out := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, string(m.Sender))
	}
	return out
}

// LeadFilter is the filter and ordering state of the leads view.
// The zero value filters nothing and keeps source order.
type LeadFilter struct {
	Search  string          `json:"search,omitempty"`
	Range   DateRange       `json:"range"`
	Source  string          `json:"source,omitempty"`
	Message MessagePresence `json:"message,omitempty"`
	Sort    LeadSortKey     `json:"sort,omitempty"`
	Order   Order           `json:"order,omitempty"`
}

func (f LeadFilter) WithSearch(s string) LeadFilter {
	f.Search = s
	return f
}

func (f LeadFilter) WithRange(r DateRange) LeadFilter {
	f.Range = r
	return f
}

func (f LeadFilter) WithSource(s string) LeadFilter {
	f.Source = s
	return f
}

func (f LeadFilter) WithMessage(p MessagePresence) LeadFilter {
	f.Message = p
	return f
}

func (f LeadFilter) WithSort(key LeadSortKey, order Order) LeadFilter {
	f.Sort = key
	f.Order = order
	return f
}

// Predicates returns the active predicates in a fixed order.
func (f LeadFilter) Predicates() []Predicate[LeadRecord] {
	var preds []Predicate[LeadRecord]
	if f.Search != "" {
		preds = append(preds, Substring[LeadRecord]{
			Needle: f.Search,
			Fields: func(l LeadRecord) []string {
				return []string{l.Name, l.Email, l.Phone, l.Message, l.Source}
			},
		})
	}
	if !f.Range.IsZero() {
		preds = append(preds, Within[LeadRecord]{
			Range: f.Range,
			At:    func(l LeadRecord) time.Time { return l.OccurredAt },
		})
	}
	if f.Source != "" {
		preds = append(preds, Equals[LeadRecord]{
			Want:   f.Source,
			Values: func(l LeadRecord) []string { return []string{l.Source} },
		})
	}
	if f.Message.active() {
		preds = append(preds, Presence[LeadRecord]{
			Want:  f.Message,
			Value: func(l LeadRecord) string { return l.Message },
		})
	}
	return preds
}

// ActiveFilters lists every non-default filter field.
func (f LeadFilter) ActiveFilters() []ActiveFilter {
	var out []ActiveFilter
	if f.Search != "" {
		out = append(out, ActiveFilter{Field: "search", Label: "Ricerca", Value: f.Search})
	}
	if !f.Range.IsZero() {
		out = append(out, ActiveFilter{Field: "range", Label: "Periodo", Value: describeRange(f.Range)})
	}
	if f.Source != "" {
		out = append(out, ActiveFilter{Field: "source", Label: "Fonte", Value: f.Source})
	}
	if f.Message.active() {
		v := "Con messaggio"
		if f.Message == WithoutMessage {
			v = "Senza messaggio"
		}
		out = append(out, ActiveFilter{Field: "message", Label: "Messaggio", Value: v})
	}
	return out
}

// ActiveCount returns the number of non-default filter fields.
func (f LeadFilter) ActiveCount() int {
	return len(f.ActiveFilters())
}

// Apply filters leads and orders the result. The input slice is
// left untouched.
func (f LeadFilter) Apply(leads []LeadRecord) []LeadRecord {
	return SortLeads(Apply(leads, f.Predicates()...), f.Sort, f.Order)
}

const badgeDateLayout = "02/01/2006"

// describeRange renders a range the way the date picker shows it.
func describeRange(r DateRange) string {
	switch {
	case r.Bounded():
		return r.From.Format(badgeDateLayout) + " - " + r.To.Format(badgeDateLayout)
	case r.HasFrom():
		return "Dal " + r.From.Format(badgeDateLayout)
	case r.HasTo():
		return "Fino al " + r.To.Format(badgeDateLayout)
	default:
		return ""
	}
}
