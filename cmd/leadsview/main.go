package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wesm/leadsview/internal/config"
	"github.com/wesm/leadsview/internal/db"
	"github.com/wesm/leadsview/internal/ingest"
	"github.com/wesm/leadsview/internal/server"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const (
	watcherDebounce = 500 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

func main() {
	setupLogging(os.Getenv("LEADSVIEW_LOG_LEVEL"))

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "import":
			if err := runImport(os.Args[2:], os.Stdout); err != nil {
				log.Fatal().Err(err).Msg("import failed")
			}
			return
		case "export":
			if err := runExport(os.Args[2:], os.Stdout); err != nil {
				log.Fatal().Err(err).Msg("export failed")
			}
			return
		case "serve":
			runServe(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("leadsview %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`leadsview %s - leads and chatbot conversations dashboard

Imports JSONL dumps of chat messages and captured leads into SQLite
and serves filtered reports, daily series and CSV exports over HTTP.

Usage:
  leadsview [flags]          Start the server (default command)
  leadsview serve [flags]    Start the server (explicit)
  leadsview import [flags]   Load JSONL dumps for one tenant
  leadsview export [flags]   Write a filtered CSV for one tenant
  leadsview version          Show version information
  leadsview help             Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8080)
  -timezone string    IANA timezone for day boundaries (default "UTC")
  -inbox string       Directory of <user>/<messages|leads>*.jsonl dumps
  -user string        Tenant used when requests carry no X-User-ID

Import flags:
  -user string        Tenant to import into (default: configured user)
  -messages string    JSONL file of chat messages
  -leads string       JSONL file of leads
  -save-user          Remember -user as the default tenant

Export flags:
  -user string        Tenant to export (default: configured user)
  -kind string        leads or conversations (default "leads")
  -q string           Free-text search
  -preset string      today, last7days, last30days or thismonth
  -from, -to string   Custom range (YYYY-MM-DD), ignored with -preset
  -source string      Lead source
  -has-message string with or without (leads)
  -min-messages int   Minimum messages per conversation
  -sender string      user or bot (conversations)
  -sort, -order       Sort key and asc|desc
  -out string         Output file (default: dated name, "-" for stdout)

Environment variables:
  LEADSVIEW_DATA_DIR      Data directory (database, config)
  LEADSVIEW_TIMEZONE      Timezone for day boundaries
  LEADSVIEW_INBOX_DIR     Inbox directory to import and watch
  LEADSVIEW_DEFAULT_USER  Default tenant
  LEADSVIEW_LOG_LEVEL     debug, info, warn or error

Data is stored in ~/.leadsview/ by default.
`, version)
}

// setupLogging points the global logger at stderr. An empty or
// unknown level means info.
func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	})
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func runServe(args []string) {
	cfg := mustLoadConfig(args)
	setupLogging(cfg.LogLevel)
	database := mustOpenDB(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	importer := ingest.NewImporter(database)
	if cfg.InboxDir != "" {
		runInitialImport(ctx, importer, cfg.InboxDir)
		stopWatcher := startInboxWatcher(ctx, cfg.InboxDir, importer)
		defer stopWatcher()
	}

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		log.Warn().Int("requested", cfg.Port).Int("port", port).
			Msg("port in use")
	}
	cfg.Port = port

	srv := server.New(cfg, database,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	fmt.Printf("leadsview %s listening at http://%s:%d\n",
		version, cfg.Host, cfg.Port)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}

// loadConfig parses the serve flags and layers them over the
// file and env settings.
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("leadsview", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: leadsview [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, fmt.Errorf("parsing flags: %w", err)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return cfg, fmt.Errorf("creating data dir: %w", err)
	}
	return cfg, nil
}

func mustLoadConfig(args []string) config.Config {
	cfg, err := loadConfig(args)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	return cfg
}

func mustOpenDB(cfg config.Config) *db.DB {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("opening database")
	}
	return database
}

func runInitialImport(
	ctx context.Context, importer *ingest.Importer, root string,
) {
	log.Info().Str("inbox", root).Msg("importing inbox")
	results, err := importer.ScanInbox(ctx, root)
	if err != nil {
		log.Warn().Err(err).Msg("inbox scan incomplete")
	}
	logResults(results)
}

func logResults(results []ingest.Result) {
	for _, r := range results {
		log.Info().
			Str("path", r.Path).
			Str("user", r.UserID).
			Str("kind", string(r.Kind)).
			Int("rows", r.Rows).
			Int("skipped", r.Skipped).
			Msg("imported")
	}
}

func startInboxWatcher(
	ctx context.Context, root string, importer *ingest.Importer,
) func() {
	if _, err := os.Stat(root); err != nil {
		log.Warn().Err(err).Msg("inbox not watched")
		return func() {}
	}
	onChange := func(paths []string) {
		logResults(importer.SyncPaths(ctx, root, paths))
	}
	watcher, err := ingest.NewWatcher(root, watcherDebounce, onChange)
	if err != nil {
		log.Warn().Err(err).Msg("inbox watcher unavailable")
		return func() {}
	}
	watcher.Start()
	tenants, err := watcher.WatchInbox()
	if err != nil {
		log.Warn().Err(err).Msg("inbox not watched")
		watcher.Stop()
		return func() {}
	}
	log.Debug().Int("tenants", tenants).Msg("watching inbox")
	return watcher.Stop
}
