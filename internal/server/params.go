package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wesm/leadsview/internal/report"
)

// resolveUser returns the tenant for r: the X-User-ID header,
// or the configured default user. Writes a 401 and returns
// false when neither is set.
func (s *Server) resolveUser(
	w http.ResponseWriter, r *http.Request,
) (string, bool) {
	if u := strings.TrimSpace(r.Header.Get(userHeader)); u != "" {
		return u, true
	}
	if u := strings.TrimSpace(s.cfg.DefaultUser); u != "" {
		return u, true
	}
	writeError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
	return "", false
}

// parseRange reads preset, from and to. A known preset wins
// over the custom bounds; an unknown one is ignored.
func parseRange(
	q url.Values, now time.Time, loc *time.Location,
) report.DateRange {
	return report.ResolveRange(q.Get("preset"), q.Get("from"), q.Get("to"), now, loc)
}

// parseCount reads a non-negative integer. Malformed or
// negative values read as zero, which disables the filter.
func parseCount(q url.Values, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get(name)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseSessionFilter(
	q url.Values, now time.Time, loc *time.Location,
) report.SessionFilter {
	return report.SessionFilter{}.
		WithSearch(q.Get("q")).
		WithRange(parseRange(q, now, loc)).
		WithMinMessages(parseCount(q, "min_messages")).
		WithSender(q.Get("sender")).
		WithSort(
			report.ParseSessionSortKey(q.Get("sort")),
			report.ParseOrder(q.Get("order")),
		)
}

func parseLeadFilter(
	q url.Values, now time.Time, loc *time.Location,
) report.LeadFilter {
	return report.LeadFilter{}.
		WithSearch(q.Get("q")).
		WithRange(parseRange(q, now, loc)).
		WithSource(strings.TrimSpace(q.Get("source"))).
		WithMessage(report.ParseMessagePresence(q.Get("has_message"))).
		WithSort(
			report.ParseLeadSortKey(q.Get("sort")),
			report.ParseOrder(q.Get("order")),
		)
}
