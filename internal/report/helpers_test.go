package report

import (
	"fmt"
	"time"
)

// at returns 2024-06-<day> hh:mm UTC.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, time.UTC)
}

func msg(sid string, sender Sender, text string, ts time.Time) MessageEvent {
	return MessageEvent{
		ID:         fmt.Sprintf("%s-%d", sid, ts.Unix()),
		SessionID:  sid,
		Sender:     sender,
		Text:       text,
		OccurredAt: ts,
	}
}

// conversationSet returns three sessions interleaved in time:
//
//	alpha: 06-01 09:00 .. 06-01 09:10, 3 messages
//	beta:  06-02 10:00 .. 06-04 08:00, 2 messages
//	gamma: 06-03 12:00, 1 bot-only message
func conversationSet() []MessageEvent {
	return []MessageEvent{
		msg("alpha", SenderUser, "Ciao, vorrei un preventivo", at(1, 9, 0)),
		msg("alpha", SenderBot, "Certo! Di che servizio?", at(1, 9, 5)),
		msg("alpha", SenderUser, "Sito web", at(1, 9, 10)),
		msg("beta", SenderUser, "Orari di apertura?", at(2, 10, 0)),
		msg("gamma", SenderBot, "Benvenuto", at(3, 12, 0)),
		msg("beta", SenderBot, "Dalle 9 alle 18", at(4, 8, 0)),
	}
}

func lead(id, name, email, source, message string, ts time.Time) LeadRecord {
	return LeadRecord{
		ID:         id,
		Name:       name,
		Email:      email,
		Phone:      "+39 000 " + id,
		Message:    message,
		Source:     source,
		OccurredAt: ts,
	}
}

func leadSet() []LeadRecord {
	return []LeadRecord{
		lead("1", "Mario Rossi", "mario@b.com", "web", "Richiesta info", at(1, 8, 0)),
		lead("2", "anna Bianchi", "anna@b.com", "Facebook", "", at(3, 9, 0)),
		lead("3", "Luca Verdi", "luca@b.com", "web", "   ", at(3, 18, 30)),
		lead("4", "Zoe Neri", "zoe@example.org", "chatbot", "Richiamatemi", at(5, 12, 0)),
	}
}

func sessionIDs(ss []SessionSummary) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.SessionID
	}
	return out
}

func leadIDs(ls []LeadRecord) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}
