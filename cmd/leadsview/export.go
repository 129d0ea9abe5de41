package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wesm/leadsview/internal/config"
	"github.com/wesm/leadsview/internal/db"
	"github.com/wesm/leadsview/internal/ingest"
	"github.com/wesm/leadsview/internal/report"
)

// ExportConfig holds parsed CLI options for the export command.
type ExportConfig struct {
	UserID      string
	Kind        ingest.Kind
	Search      string
	Preset      string
	From        string
	To          string
	Source      string
	HasMessage  string
	MinMessages int
	Sender      string
	Sort        string
	Order       string
	Out         string
}

func parseExportFlags(args []string, defaultUser string) (ExportConfig, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var ec ExportConfig
	kind := fs.String("kind", "leads", "leads or conversations")
	fs.StringVar(&ec.UserID, "user", defaultUser, "Tenant to export")
	fs.StringVar(&ec.Search, "q", "", "Free-text search")
	fs.StringVar(&ec.Preset, "preset", "", "Named date range")
	fs.StringVar(&ec.From, "from", "", "Range start (YYYY-MM-DD)")
	fs.StringVar(&ec.To, "to", "", "Range end (YYYY-MM-DD)")
	fs.StringVar(&ec.Source, "source", "", "Lead source")
	fs.StringVar(&ec.HasMessage, "has-message", "", "with or without")
	fs.IntVar(&ec.MinMessages, "min-messages", 0, "Minimum messages per conversation")
	fs.StringVar(&ec.Sender, "sender", "", "user or bot")
	fs.StringVar(&ec.Sort, "sort", "", "Sort key")
	fs.StringVar(&ec.Order, "order", "asc", "asc or desc")
	fs.StringVar(&ec.Out, "out", "", `Output file ("-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return ExportConfig{}, err
	}

	ec.UserID = strings.TrimSpace(ec.UserID)
	if ec.UserID == "" {
		return ExportConfig{}, fmt.Errorf(
			"a tenant is required: use -user or set a default user",
		)
	}
	k, err := ingest.ParseKind(*kind)
	if err != nil {
		return ExportConfig{}, err
	}
	ec.Kind = k
	return ec, nil
}

// Exporter writes filtered CSV exports from the store.
type Exporter struct {
	DB  *db.DB
	Loc *time.Location
	Now func() time.Time
}

func (e *Exporter) now() time.Time {
	return e.Now().In(e.Loc)
}

// Filename is the default output name for ec.
func (e *Exporter) Filename(ec ExportConfig) string {
	prefix := report.LeadExportPrefix
	if ec.Kind == ingest.KindMessages {
		prefix = report.SessionExportPrefix
	}
	return report.ExportFilename(prefix, e.now())
}

// Export writes the CSV for ec to w and returns the number of
// records written.
func (e *Exporter) Export(
	ctx context.Context, ec ExportConfig, w io.Writer,
) (int, error) {
	now := e.now()
	rng := report.ResolveRange(ec.Preset, ec.From, ec.To, now, e.Loc)

	if ec.Kind == ingest.KindMessages {
		msgs, err := e.DB.ListMessages(ctx, ec.UserID)
		if err != nil {
			return 0, err
		}
		report.LocalizeMessages(msgs, e.Loc)
		f := report.SessionFilter{}.
			WithSearch(ec.Search).
			WithRange(rng).
			WithMinMessages(max(ec.MinMessages, 0)).
			WithSender(ec.Sender).
			WithSort(report.ParseSessionSortKey(ec.Sort), report.ParseOrder(ec.Order))
		sessions := f.Apply(report.GroupBySession(msgs).Summaries())
		return len(sessions), report.WriteCSV(w, sessions, report.SessionColumns)
	}

	leads, err := e.DB.ListLeads(ctx, ec.UserID)
	if err != nil {
		return 0, err
	}
	report.LocalizeLeads(leads, e.Loc)
	f := report.LeadFilter{}.
		WithSearch(ec.Search).
		WithRange(rng).
		WithSource(strings.TrimSpace(ec.Source)).
		WithMessage(report.ParseMessagePresence(ec.HasMessage)).
		WithSort(report.ParseLeadSortKey(ec.Sort), report.ParseOrder(ec.Order))
	filtered := f.Apply(leads)
	return len(filtered), report.WriteCSV(w, filtered, report.LeadColumns)
}

func runExport(args []string, out io.Writer) error {
	cfg, err := config.LoadMinimal()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	ec, err := parseExportFlags(args, cfg.DefaultUser)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	e := &Exporter{DB: database, Loc: loc, Now: time.Now}
	return writeExport(context.Background(), e, ec, out)
}

// writeExport runs e into ec.Out, the dated default name, or out
// when ec.Out is "-".
func writeExport(
	ctx context.Context, e *Exporter, ec ExportConfig, out io.Writer,
) error {
	if ec.Out == "-" {
		_, err := e.Export(ctx, ec, out)
		return err
	}

	path := ec.Out
	if path == "" {
		path = e.Filename(ec)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := e.Export(ctx, ec, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(out, "Wrote %d rows to %s\n", n, path)
	return nil
}
