// Package report is the in-memory aggregation engine behind the
// dashboard: it groups chat messages into sessions, filters and
// sorts sessions and leads, buckets events into a daily series,
// and renders CSV exports. Every function is pure; callers pass
// the full tenant-scoped input on each call.
package report

import (
	"strings"
	"time"
)

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Label returns the display label used in conversation views.
func (s Sender) Label() string {
	switch s {
	case SenderUser:
		return "Utente"
	case SenderBot:
		return "Bot"
	default:
		return string(s)
	}
}

// ParseSender normalizes a raw sender value or display label.
// Unknown values are kept verbatim so they stay searchable.
func ParseSender(s string) Sender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "utente":
		return SenderUser
	case "bot", "assistant":
		return SenderBot
	default:
		return Sender(s)
	}
}

// MessageEvent is one inbound or outbound chat message.
type MessageEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Sender     Sender    `json:"sender"`
	Text       string    `json:"message"`
	OccurredAt time.Time `json:"created_at"`
}

// LeadRecord is a captured contact submission.
type LeadRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Message    string    `json:"message"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"created_at"`
}

// SessionSummary is the derived view of one conversation.
// Messages keeps arrival order and is never empty.
type SessionSummary struct {
	SessionID string         `json:"session_id"`
	Messages  []MessageEvent `json:"messages"`
	FirstAt   time.Time      `json:"first_at"`
	LastAt    time.Time      `json:"last_at"`
	Count     int            `json:"count"`
}

// Last returns the most recent message of the session.
func (s SessionSummary) Last() MessageEvent {
	if len(s.Messages) == 0 {
		return MessageEvent{}
	}
	return s.Messages[len(s.Messages)-1]
}
