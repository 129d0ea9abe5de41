package report

// SessionIndex maps session IDs to their summaries and remembers
// the order in which each session first appeared. It is built
// once per input snapshot and not modified afterwards.
type SessionIndex struct {
	order []string
	byID  map[string]*SessionSummary
}

// GroupBySession partitions events by session ID. Events must
// already be ascending by OccurredAt; they are not re-sorted,
// so FirstAt and LastAt come from the first and last event seen
// for each session.
func GroupBySession(events []MessageEvent) *SessionIndex {
	idx := &SessionIndex{
		byID: make(map[string]*SessionSummary),
	}
	for _, ev := range events {
		s, ok := idx.byID[ev.SessionID]
		if !ok {
			s = &SessionSummary{
				SessionID: ev.SessionID,
				FirstAt:   ev.OccurredAt,
			}
			idx.byID[ev.SessionID] = s
			idx.order = append(idx.order, ev.SessionID)
		}
		s.Messages = append(s.Messages, ev)
		s.LastAt = ev.OccurredAt
		s.Count++
	}
	return idx
}

// Len returns the number of distinct sessions.
func (idx *SessionIndex) Len() int {
	return len(idx.order)
}

// IDs returns session IDs in order of first appearance.
func (idx *SessionIndex) IDs() []string {
	return append([]string(nil), idx.order...)
}

// Get returns the summary for id.
func (idx *SessionIndex) Get(id string) (SessionSummary, bool) {
	s, ok := idx.byID[id]
	if !ok {
		return SessionSummary{}, false
	}
	return *s, true
}

// Summaries returns every summary in order of first appearance.
func (idx *SessionIndex) Summaries() []SessionSummary {
	out := make([]SessionSummary, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, *idx.byID[id])
	}
	return out
}

// TotalMessages returns the number of grouped events.
func (idx *SessionIndex) TotalMessages() int {
	n := 0
	for _, s := range idx.byID {
		n += s.Count
	}
	return n
}
