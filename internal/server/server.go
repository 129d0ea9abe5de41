package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wesm/leadsview/internal/config"
	"github.com/wesm/leadsview/internal/db"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server that serves the reporting API.
type Server struct {
	mu      sync.RWMutex
	cfg     config.Config
	db      *db.DB
	loc     *time.Location
	now     func() time.Time
	mux     *http.ServeMux
	httpSrv *http.Server
	version VersionInfo

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
}

// New creates a new Server. Day boundaries and "now" use the
// configured timezone.
func New(
	cfg config.Config, database *db.DB, opts ...Option,
) *Server {
	loc, err := cfg.Location()
	if err != nil {
		log.Warn().Err(err).Msg("falling back to UTC")
		loc = time.UTC
	}
	s := &Server{
		cfg: cfg,
		db:  database,
		loc: loc,
		now: time.Now,
		mux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithClock overrides the clock used to resolve presets and
// export filenames. Nil is ignored.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *Server) routes() {
	s.mux.Handle("GET /api/v1/conversations", s.withTimeout(s.handleListConversations))
	s.mux.Handle("GET /api/v1/leads", s.withTimeout(s.handleListLeads))
	s.mux.Handle("GET /api/v1/stats", s.withTimeout(s.handleGetStats))
	s.mux.Handle("GET /api/v1/stats/daily", s.withTimeout(s.handleDailyStats))
	s.mux.Handle("GET /api/v1/presets", s.withTimeout(s.handleListPresets))
	s.mux.Handle("GET /api/v1/version", s.withTimeout(s.handleGetVersion))

	// Export: no timeout handler, so large downloads stream
	// instead of being buffered.
	s.mux.Handle(
		"GET /api/v1/conversations/export",
		http.HandlerFunc(s.handleExportConversations),
	)
	s.mux.Handle(
		"GET /api/v1/leads/export",
		http.HandlerFunc(s.handleExportLeads),
	)
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

// localNow returns the current instant in the configured zone.
func (s *Server) localNow() time.Time {
	return s.now().In(s.loc)
}

// SetPort updates the listen port (for testing).
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(logMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.httpSrv = srv
	s.mu.Unlock()

	log.Info().Str("addr", fmt.Sprintf("http://%s", addr)).Msg("starting server")
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}
