package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/wesm/leadsview/internal/config"
	"github.com/wesm/leadsview/internal/db"
	"github.com/wesm/leadsview/internal/ingest"
)

// ImportConfig holds parsed CLI options for the import command.
type ImportConfig struct {
	UserID   string
	Messages string
	Leads    string
	SaveUser bool
}

func parseImportFlags(args []string, defaultUser string) (ImportConfig, error) {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	user := fs.String("user", defaultUser, "Tenant to import into")
	messages := fs.String("messages", "", "JSONL file of chat messages")
	leads := fs.String("leads", "", "JSONL file of leads")
	saveUser := fs.Bool("save-user", false, "Remember -user as the default tenant")

	if err := fs.Parse(args); err != nil {
		return ImportConfig{}, err
	}

	cfg := ImportConfig{
		UserID:   strings.TrimSpace(*user),
		Messages: *messages,
		Leads:    *leads,
		SaveUser: *saveUser,
	}
	if cfg.UserID == "" {
		return ImportConfig{}, fmt.Errorf(
			"a tenant is required: use -user or set a default user",
		)
	}
	if cfg.Messages == "" && cfg.Leads == "" {
		return ImportConfig{}, fmt.Errorf(
			"nothing to import: use -messages and/or -leads",
		)
	}
	return cfg, nil
}

// importFiles loads each configured dump and reports per-file
// counts to out.
func importFiles(
	ctx context.Context, importer *ingest.Importer,
	ic ImportConfig, out io.Writer,
) error {
	jobs := []struct {
		kind ingest.Kind
		path string
	}{
		{ingest.KindMessages, ic.Messages},
		{ingest.KindLeads, ic.Leads},
	}
	for _, j := range jobs {
		if j.path == "" {
			continue
		}
		res, err := importer.ImportFile(ctx, ic.UserID, j.kind, j.path)
		if err != nil {
			return fmt.Errorf("importing %s: %w", j.kind, err)
		}
		fmt.Fprintf(out,
			"Imported %d %s for %s from %s (%d lines skipped)\n",
			res.Rows, j.kind, ic.UserID, j.path, res.Skipped,
		)
	}
	return nil
}

func runImport(args []string, out io.Writer) error {
	cfg, err := config.LoadMinimal()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	ic, err := parseImportFlags(args, cfg.DefaultUser)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := importFiles(
		context.Background(), ingest.NewImporter(database), ic, out,
	); err != nil {
		return err
	}

	if ic.SaveUser {
		if err := cfg.SaveDefaultUser(ic.UserID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Default user set to %s\n", ic.UserID)
	}
	return nil
}
