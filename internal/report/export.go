package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wesm/leadsview/internal/timeutil"
)

// Export filename prefixes.
const (
	LeadExportPrefix    = "leads_filtrati"
	SessionExportPrefix = "conversazioni_filtrate"
)

// CSVContentType is the media type of exported documents.
const CSVContentType = "text/csv; charset=utf-8"

// Column selects one exported field.
type Column[T any] struct {
	Label string
	Value func(T) string
}

// LeadColumns is the fixed lead export schema.
var LeadColumns = []Column[LeadRecord]{
	{Label: "Name", Value: func(l LeadRecord) string { return l.Name }},
	{Label: "Email", Value: func(l LeadRecord) string { return l.Email }},
	{Label: "Phone", Value: func(l LeadRecord) string { return l.Phone }},
	{Label: "Message", Value: func(l LeadRecord) string { return l.Message }},
	{Label: "Source", Value: func(l LeadRecord) string { return l.Source }},
	{Label: "CreatedAt", Value: func(l LeadRecord) string { return timeutil.Format(l.OccurredAt) }},
}

// SessionColumns is the fixed conversation export schema.
var SessionColumns = []Column[SessionSummary]{
	{Label: "SessionID", Value: func(s SessionSummary) string { return s.SessionID }},
	{Label: "Messages", Value: func(s SessionSummary) string { return strconv.Itoa(s.Count) }},
	{Label: "FirstAt", Value: func(s SessionSummary) string { return timeutil.Format(s.FirstAt) }},
	{Label: "LastAt", Value: func(s SessionSummary) string { return timeutil.Format(s.LastAt) }},
	{Label: "LastSender", Value: func(s SessionSummary) string { return string(s.Last().Sender) }},
	{Label: "LastMessage", Value: func(s SessionSummary) string { return s.Last().Text }},
}

// quoteField wraps v in double quotes, doubling embedded quotes.
// Every field is quoted, unlike encoding/csv which quotes only
// when needed.
func quoteField(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func headerLine[T any](cols []Column[T]) string {
	labels := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = c.Label
	}
	return strings.Join(labels, ",")
}

func recordLine[T any](r T, cols []Column[T]) string {
	fields := make([]string, len(cols))
	for i, c := range cols {
		fields[i] = quoteField(c.Value(r))
	}
	return strings.Join(fields, ",")
}

// Serialize renders records as a header line plus one quoted
// line per record, joined by newlines with no trailing newline.
func Serialize[T any](records []T, cols []Column[T]) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, headerLine(cols))
	for _, r := range records {
		lines = append(lines, recordLine(r, cols))
	}
	return strings.Join(lines, "\n")
}

// WriteCSV streams the same document Serialize builds.
func WriteCSV[T any](w io.Writer, records []T, cols []Column[T]) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(headerLine(cols)); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := bw.WriteString("\n" + recordLine(r, cols)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportFilename returns "<prefix>_<YYYY-MM-DD>.csv" for now's day.
func ExportFilename(prefix string, now time.Time) string {
	return prefix + "_" + timeutil.DayKey(now) + ".csv"
}
