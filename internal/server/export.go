package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/wesm/leadsview/internal/report"
)

// setAttachment sets the CSV download headers for prefix.
func (s *Server) setAttachment(w http.ResponseWriter, prefix string) {
	filename := report.ExportFilename(prefix, s.localNow())
	w.Header().Set("Content-Type", report.CSVContentType)
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, filename),
	)
}

// handleExportConversations downloads the filtered sessions as
// CSV. Filters are the same as the list endpoint.
func (s *Server) handleExportConversations(
	w http.ResponseWriter, r *http.Request,
) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	msgs, err := s.loadMessages(r.Context(), user)
	if err != nil {
		writeInternalError(w, "export conversations", err)
		return
	}
	f := parseSessionFilter(r.URL.Query(), s.localNow(), s.loc)
	sessions := f.Apply(report.GroupBySession(msgs).Summaries())

	s.setAttachment(w, report.SessionExportPrefix)
	if err := report.WriteCSV(w, sessions, report.SessionColumns); err != nil {
		log.Warn().Err(err).Msg("export conversations: writing csv")
	}
}

// handleExportLeads downloads the filtered leads as CSV.
func (s *Server) handleExportLeads(
	w http.ResponseWriter, r *http.Request,
) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	leads, err := s.loadLeads(r.Context(), user)
	if err != nil {
		writeInternalError(w, "export leads", err)
		return
	}
	f := parseLeadFilter(r.URL.Query(), s.localNow(), s.loc)

	s.setAttachment(w, report.LeadExportPrefix)
	if err := report.WriteCSV(w, f.Apply(leads), report.LeadColumns); err != nil {
		log.Warn().Err(err).Msg("export leads: writing csv")
	}
}
