// Package ingest loads JSONL dumps of chat messages and lead
// submissions into the store, either on demand or by watching an
// inbox directory laid out as <inbox>/<user id>/<kind>*.jsonl.
package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/wesm/leadsview/internal/report"
	"github.com/wesm/leadsview/internal/timeutil"
)

// Kind selects which table a dump is loaded into.
type Kind string

const (
	KindMessages Kind = "messages"
	KindLeads    Kind = "leads"
)

// ParseKind maps user input to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMessages, KindLeads:
		return k, nil
	case "conversations":
		return KindMessages, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}

// idNamespace seeds name-based IDs for rows that carry none, so
// re-importing the same line yields the same ID.
var idNamespace = uuid.MustParse("7b1f3c52-9d0e-4c1a-8f6e-2a5d9c4e1b70")

var (
	errInvalidJSON    = errors.New("invalid JSON")
	errMissingSession = errors.New("missing session_id")
	errMissingTime    = errors.New("missing or invalid created_at")
)

// firstOf returns the first existing field among paths.
func firstOf(line string, paths ...string) gjson.Result {
	for _, r := range gjson.GetMany(line, paths...) {
		if r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

// parseTime accepts RFC3339-style strings and Unix epochs in
// seconds or milliseconds.
func parseTime(r gjson.Result) (time.Time, bool) {
	switch r.Type {
	case gjson.String:
		return timeutil.Parse(r.Str)
	case gjson.Number:
		n := r.Int()
		if n <= 0 {
			return time.Time{}, false
		}
		// Anything past year 2286 in seconds is milliseconds.
		if n > 1e10 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func rowID(line string, r gjson.Result) string {
	if id := strings.TrimSpace(r.String()); id != "" {
		return id
	}
	return uuid.NewSHA1(idNamespace, []byte(line)).String()
}

// DecodeMessage parses one JSONL message row. Accepted keys:
// id, session_id|sessionId, sender|role, message|text|content,
// created_at|timestamp.
func DecodeMessage(line string) (report.MessageEvent, error) {
	if !gjson.Valid(line) {
		return report.MessageEvent{}, errInvalidJSON
	}
	sid := strings.TrimSpace(firstOf(line, "session_id", "sessionId").String())
	if sid == "" {
		return report.MessageEvent{}, errMissingSession
	}
	at, ok := parseTime(firstOf(line, "created_at", "timestamp"))
	if !ok {
		return report.MessageEvent{}, errMissingTime
	}
	return report.MessageEvent{
		ID:         rowID(line, gjson.Get(line, "id")),
		SessionID:  sid,
		Sender:     report.ParseSender(firstOf(line, "sender", "role").String()),
		Text:       firstOf(line, "message", "text", "content").String(),
		OccurredAt: at,
	}, nil
}

// DecodeLead parses one JSONL lead row. Accepted keys: id, name,
// email, phone, message, source, created_at|timestamp.
func DecodeLead(line string) (report.LeadRecord, error) {
	if !gjson.Valid(line) {
		return report.LeadRecord{}, errInvalidJSON
	}
	at, ok := parseTime(firstOf(line, "created_at", "timestamp"))
	if !ok {
		return report.LeadRecord{}, errMissingTime
	}
	f := gjson.GetMany(line, "id", "name", "email", "phone", "message", "source")
	return report.LeadRecord{
		ID:         rowID(line, f[0]),
		Name:       f[1].String(),
		Email:      f[2].String(),
		Phone:      f[3].String(),
		Message:    f[4].String(),
		Source:     f[5].String(),
		OccurredAt: at,
	}, nil
}
