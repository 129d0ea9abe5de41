package report

import "time"

// LocalizeMessages moves every event's timestamp into loc in
// place, so calendar days are computed in loc. The instant is
// unchanged.
func LocalizeMessages(msgs []MessageEvent, loc *time.Location) {
	for i := range msgs {
		msgs[i].OccurredAt = msgs[i].OccurredAt.In(loc)
	}
}

// LocalizeLeads is LocalizeMessages for leads.
func LocalizeLeads(leads []LeadRecord, loc *time.Location) {
	for i := range leads {
		leads[i].OccurredAt = leads[i].OccurredAt.In(loc)
	}
}
