// Package testjsonl provides shared JSONL fixture builders for
// message and lead dumps. Used by the ingest tests, the CLI tests
// and the fixture generator.
package testjsonl

import (
	"encoding/json"
	"strings"
)

// MessageJSON returns a chat message row as a JSON string. An
// empty id omits the field.
func MessageJSON(
	id, sessionID, sender, text, createdAt string,
) string {
	m := map[string]any{
		"session_id": sessionID,
		"sender":     sender,
		"message":    text,
		"created_at": createdAt,
	}
	if id != "" {
		m["id"] = id
	}
	return mustMarshal(m)
}

// AltMessageJSON returns a message row using the alternate
// keys some exporters write (sessionId, role, text, timestamp).
// The timestamp may be a string or a number.
func AltMessageJSON(
	sessionID, role, text string, timestamp any,
) string {
	return mustMarshal(map[string]any{
		"sessionId": sessionID,
		"role":      role,
		"text":      text,
		"timestamp": timestamp,
	})
}

// Lead holds the fields of a lead row. Empty fields are
// omitted from the JSON.
type Lead struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Message   string
	Source    string
	CreatedAt string
}

// LeadJSON returns a lead row as a JSON string.
func LeadJSON(l Lead) string {
	m := map[string]any{"created_at": l.CreatedAt}
	for k, v := range map[string]string{
		"id":      l.ID,
		"name":    l.Name,
		"email":   l.Email,
		"phone":   l.Phone,
		"message": l.Message,
		"source":  l.Source,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return mustMarshal(m)
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// DumpBuilder constructs JSONL dump content using a fluent API.
type DumpBuilder struct {
	lines []string
}

// NewDumpBuilder returns a new empty DumpBuilder.
func NewDumpBuilder() *DumpBuilder {
	return &DumpBuilder{}
}

// AddMessage appends a message line.
func (b *DumpBuilder) AddMessage(
	id, sessionID, sender, text, createdAt string,
) *DumpBuilder {
	b.lines = append(b.lines, MessageJSON(id, sessionID, sender, text, createdAt))
	return b
}

// AddLead appends a lead line.
func (b *DumpBuilder) AddLead(l Lead) *DumpBuilder {
	b.lines = append(b.lines, LeadJSON(l))
	return b
}

// AddRaw appends an arbitrary raw line.
func (b *DumpBuilder) AddRaw(line string) *DumpBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Len returns the number of lines added so far.
func (b *DumpBuilder) Len() int {
	return len(b.lines)
}

// String returns the JSONL content with a trailing newline.
func (b *DumpBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// StringNoTrailingNewline returns the JSONL content without a
// trailing newline.
func (b *DumpBuilder) StringNoTrailingNewline() string {
	return strings.Join(b.lines, "\n")
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
