package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wesm/leadsview/internal/db"
	"github.com/wesm/leadsview/internal/ingest"
	"github.com/wesm/leadsview/internal/testjsonl"
)

type sessionSpec struct {
	suffix   string
	day      int
	msgCount int
}

var sessionSpecs = []sessionSpec{
	{"quick-2", 0, 2},
	{"pricing-5", 0, 5},
	{"hours-3", 1, 3},
	{"booking-8", 2, 8},
	{"support-12", 4, 12},
	{"late-night-4", 6, 4},
	{"long-40", 9, 40},
}

type leadSpec struct {
	name    string
	source  string
	message string
	day     int
}

var leadSpecs = []leadSpec{
	{"Mario Rossi", "web", "Vorrei un preventivo", 0},
	{"Anna Bianchi", "Facebook", "", 0},
	{"Luca \"Lucky\" Verdi", "web", "Richiamatemi, grazie", 1},
	{"Giulia Neri", "chatbot", "Info sugli orari", 3},
	{"Paolo Gallo", "Instagram", "", 5},
	{"Sara Conti", "chatbot", "Prenotazione per due", 8},
	{"Marco Ferri", "web", "  ", 12},
}

func main() {
	out := flag.String("out", "", "output database path")
	inbox := flag.String("inbox", "", "write JSONL dumps under <inbox>/<user>/ instead")
	user := flag.String("user", "demo", "tenant to generate data for")
	base := flag.String("base", "", "first day (YYYY-MM-DD, default 9 days ago)")
	flag.Parse()
	if (*out == "") == (*inbox == "") {
		fmt.Fprintln(os.Stderr,
			"usage: testfixture (-out <path> | -inbox <dir>) [-user ID] [-base YYYY-MM-DD]")
		os.Exit(1)
	}

	start := time.Now().UTC().AddDate(0, 0, -9).Truncate(24 * time.Hour)
	if *base != "" {
		t, err := time.Parse("2006-01-02", *base)
		if err != nil {
			log.Fatal().Err(err).Msg("parsing -base")
		}
		start = t
	}
	start = start.Add(9 * time.Hour)

	messages := generateMessages(start)
	leads := generateLeads(start)

	if *inbox != "" {
		if err := writeInbox(*inbox, *user, messages, leads); err != nil {
			log.Fatal().Err(err).Msg("writing inbox")
		}
		fmt.Printf("Inbox dumps written to %s\n", filepath.Join(*inbox, *user))
		return
	}

	if err := os.Remove(*out); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		log.Fatal().Err(err).Msg("removing existing db")
	}
	if err := writeDB(*out, *user, messages, leads); err != nil {
		log.Fatal().Err(err).Msg("writing fixture db")
	}
	fmt.Printf("Fixture DB written to %s\n", *out)
}

// generateMessages builds one dump holding every session, user
// and bot turns alternating a minute apart.
func generateMessages(start time.Time) *testjsonl.DumpBuilder {
	b := testjsonl.NewDumpBuilder()
	for _, spec := range sessionSpecs {
		sessionID := "session-" + spec.suffix
		at := start.AddDate(0, 0, spec.day)
		for i := range spec.msgCount {
			sender := "user"
			if i%2 == 1 {
				sender = "bot"
			}
			b.AddMessage(
				fmt.Sprintf("%s-%03d", sessionID, i),
				sessionID, sender,
				generateContent(sender, i, spec.msgCount),
				at.Add(time.Duration(i)*time.Minute).Format(time.RFC3339Nano),
			)
		}
		fmt.Printf("  %s: %d messages\n", sessionID, spec.msgCount)
	}
	return b
}

func generateLeads(start time.Time) *testjsonl.DumpBuilder {
	b := testjsonl.NewDumpBuilder()
	for i, spec := range leadSpecs {
		slug := strings.ToLower(strings.Fields(spec.name)[0])
		b.AddLead(testjsonl.Lead{
			ID:        fmt.Sprintf("lead-%02d", i+1),
			Name:      spec.name,
			Email:     slug + "@example.com",
			Phone:     fmt.Sprintf("+39 333 000 %04d", i+1),
			Message:   spec.message,
			Source:    spec.source,
			CreatedAt: start.AddDate(0, 0, spec.day).Add(time.Duration(i) * time.Hour).Format(time.RFC3339Nano),
		})
	}
	fmt.Printf("  %d leads\n", len(leadSpecs))
	return b
}

func generateContent(sender string, idx, total int) string {
	if sender == "user" {
		return fmt.Sprintf(
			"Messaggio %d di %d. Vorrei sapere prezzi e disponibilità.",
			idx+1, total,
		)
	}
	return fmt.Sprintf(
		"Risposta %d di %d. Certo, ecco le informazioni richieste.",
		idx+1, total,
	)
}

func writeInbox(
	root, user string, messages, leads *testjsonl.DumpBuilder,
) error {
	dir := filepath.Join(root, user)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	files := map[string]string{
		"messages.jsonl": messages.String(),
		"leads.jsonl":    leads.String(),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// writeDB loads the dumps through the importer so the fixture
// exercises the same decoding path as real imports.
func writeDB(
	path, user string, messages, leads *testjsonl.DumpBuilder,
) error {
	database, err := db.Open(path)
	if err != nil {
		return fmt.Errorf("opening db: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	im := ingest.NewImporter(database)
	if _, err := im.Import(ctx, user, ingest.KindMessages, strings.NewReader(messages.String())); err != nil {
		return err
	}
	if _, err := im.Import(ctx, user, ingest.KindLeads, strings.NewReader(leads.String())); err != nil {
		return err
	}
	return nil
}
