package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wesm/leadsview/internal/report"
	"github.com/wesm/leadsview/internal/timeutil"
)

// loadMessages returns userID's messages with timestamps moved
// into the configured zone, so calendar days are local days.
func (s *Server) loadMessages(
	ctx context.Context, userID string,
) ([]report.MessageEvent, error) {
	msgs, err := s.db.ListMessages(ctx, userID)
	if err != nil {
		return nil, err
	}
	report.LocalizeMessages(msgs, s.loc)
	return msgs, nil
}

func (s *Server) loadLeads(
	ctx context.Context, userID string,
) ([]report.LeadRecord, error) {
	leads, err := s.db.ListLeads(ctx, userID)
	if err != nil {
		return nil, err
	}
	report.LocalizeLeads(leads, s.loc)
	return leads, nil
}

func (s *Server) handleListConversations(
	w http.ResponseWriter, r *http.Request,
) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	msgs, err := s.loadMessages(r.Context(), user)
	if err != nil {
		writeInternalError(w, "list conversations", err)
		return
	}
	f := parseSessionFilter(r.URL.Query(), s.localNow(), s.loc)
	writeJSON(w, http.StatusOK, report.BuildSessionReport(msgs, f))
}

func (s *Server) handleListLeads(
	w http.ResponseWriter, r *http.Request,
) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	leads, err := s.loadLeads(r.Context(), user)
	if err != nil {
		writeInternalError(w, "list leads", err)
		return
	}
	f := parseLeadFilter(r.URL.Query(), s.localNow(), s.loc)
	writeJSON(w, http.StatusOK, report.BuildLeadReport(leads, f))
}

func (s *Server) handleGetStats(
	w http.ResponseWriter, r *http.Request,
) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	stats, err := s.db.GetStats(r.Context(), user)
	if err != nil {
		writeInternalError(w, "get stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// maxDailySpan caps the daily series at roughly ten years of
// buckets per request.
const maxDailySpan = 3660 * 24 * time.Hour

var errRangeTooLong = fmt.Errorf(
	"date range exceeds %d days", int(maxDailySpan/(24*time.Hour)))

// handleDailyStats serves the dashboard series. Without any
// range parameter it covers the last seven days; a custom range
// must carry both bounds and span at most maxDailySpan.
func (s *Server) handleDailyStats(
	w http.ResponseWriter, r *http.Request,
) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	now := s.localNow()
	rng := parseRange(q, now, s.loc)
	if rng.IsZero() && q.Get("from") == "" && q.Get("to") == "" {
		rng = report.Last7Days(now)
	}
	if !rng.Bounded() {
		writeError(w, http.StatusBadRequest, report.ErrUnboundedRange.Error())
		return
	}
	if rng.To.Sub(rng.From) > maxDailySpan {
		writeError(w, http.StatusBadRequest, errRangeTooLong.Error())
		return
	}

	ctx := r.Context()
	leads, err := s.loadLeads(ctx, user)
	if err != nil {
		writeInternalError(w, "daily stats: leads", err)
		return
	}
	msgs, err := s.loadMessages(ctx, user)
	if err != nil {
		writeInternalError(w, "daily stats: messages", err)
		return
	}

	dash, err := report.BuildDashboard(leads, msgs, rng)
	if errors.Is(err, report.ErrUnboundedRange) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeInternalError(w, "daily stats", err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

type presetResponse struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	From    string `json:"from"`
	To      string `json:"to"`
	FromDay string `json:"from_day"`
	ToDay   string `json:"to_day"`
}

func (s *Server) handleListPresets(
	w http.ResponseWriter, _ *http.Request,
) {
	now := s.localNow()
	out := make([]presetResponse, 0, len(report.Presets()))
	for _, p := range report.Presets() {
		rng := p.Resolve(now)
		out = append(out, presetResponse{
			Name:    p.Name,
			Label:   p.Label,
			From:    timeutil.Format(rng.From),
			To:      timeutil.Format(rng.To),
			FromDay: timeutil.DayKey(rng.From),
			ToDay:   timeutil.DayKey(rng.To),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
