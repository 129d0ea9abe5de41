package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wesm/leadsview/internal/db"
	"github.com/wesm/leadsview/internal/report"
)

// Result summarizes one loaded dump.
type Result struct {
	Path    string `json:"path,omitempty"`
	UserID  string `json:"user_id"`
	Kind    Kind   `json:"kind"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

// Importer writes decoded rows into the store.
type Importer struct {
	db *db.DB
}

// NewImporter returns an Importer backed by database.
func NewImporter(database *db.DB) *Importer {
	return &Importer{db: database}
}

// Import decodes every line of r as a kind row and upserts the
// decoded rows for userID. Undecodable lines are counted and
// skipped; a read error aborts without writing.
func (im *Importer) Import(
	ctx context.Context, userID string, kind Kind, r io.Reader,
) (Result, error) {
	res := Result{UserID: userID, Kind: kind}
	if kind != KindMessages && kind != KindLeads {
		return res, fmt.Errorf("unknown kind %q", kind)
	}
	lr := newLineReader(r, maxLineSize)

	var (
		msgs  []report.MessageEvent
		leads []report.LeadRecord
	)
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var err error
		switch kind {
		case KindMessages:
			var m report.MessageEvent
			if m, err = DecodeMessage(line); err == nil {
				msgs = append(msgs, m)
			}
		case KindLeads:
			var l report.LeadRecord
			if l, err = DecodeLead(line); err == nil {
				leads = append(leads, l)
			}
		}
		if err != nil {
			res.Skipped++
			log.Debug().Err(err).Int("line", lr.line()).
				Str("kind", string(kind)).Msg("skipping row")
		}
	}
	if err := lr.Err(); err != nil {
		return res, fmt.Errorf("reading %s: %w", kind, err)
	}

	var err error
	switch kind {
	case KindMessages:
		res.Rows, err = im.db.UpsertMessages(userID, msgs)
	case KindLeads:
		res.Rows, err = im.db.UpsertLeads(userID, leads)
	}
	if err != nil {
		return res, fmt.Errorf("storing %s: %w", kind, err)
	}
	return res, nil
}

// ImportFile loads the file at path.
func (im *Importer) ImportFile(
	ctx context.Context, userID string, kind Kind, path string,
) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := im.Import(ctx, userID, kind, f)
	res.Path = path
	return res, err
}

// ClassifyInboxPath maps <root>/<user>/<kind>*.jsonl to its user
// and kind. ok is false for any other path.
func ClassifyInboxPath(root, path string) (userID string, kind Kind, ok bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || parts[0] == "." || parts[0] == ".." {
		return "", "", false
	}
	name := strings.ToLower(parts[1])
	if !strings.HasSuffix(name, ".jsonl") {
		return "", "", false
	}
	switch {
	case strings.HasPrefix(name, string(KindMessages)):
		kind = KindMessages
	case strings.HasPrefix(name, string(KindLeads)):
		kind = KindLeads
	default:
		return "", "", false
	}
	return parts[0], kind, true
}

// syncInboxFile imports path when its size or mtime differs from
// the stored fingerprint. imported is false when the file was
// unchanged or is not an inbox dump.
func (im *Importer) syncInboxFile(
	ctx context.Context, root, path string,
) (res Result, imported bool, err error) {
	userID, kind, ok := ClassifyInboxPath(root, path)
	if !ok {
		return Result{}, false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, false, im.db.DeleteImportedFile(path)
		}
		return Result{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Result{}, false, nil
	}

	size, mtime := info.Size(), info.ModTime().UnixNano()
	prev, found, err := im.db.GetImportedFile(path)
	if err != nil {
		return Result{}, false, err
	}
	if found && prev.Unchanged(size, mtime) {
		return Result{}, false, nil
	}

	res, err = im.ImportFile(ctx, userID, kind, path)
	if err != nil {
		return res, false, err
	}
	if err := im.db.RecordImportedFile(db.ImportedFile{
		Path: path, Size: size, MTime: mtime,
		UserID: userID, Rows: res.Rows,
	}); err != nil {
		return res, true, err
	}
	return res, true, nil
}

// ScanInbox imports every new or changed dump under root.
func (im *Importer) ScanInbox(
	ctx context.Context, root string,
) ([]Result, error) {
	return im.scanDir(ctx, root, root)
}

// scanDir walks dir and syncs each file, classifying paths
// against the inbox root. A file that fails is logged and left
// for the next scan.
func (im *Importer) scanDir(
	ctx context.Context, root, dir string,
) ([]Result, error) {
	var results []Result
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		res, imported, err := im.syncInboxFile(ctx, root, path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("inbox import failed")
			return nil
		}
		if imported {
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("scanning inbox %s: %w", dir, err)
	}
	return results, nil
}

// SyncPaths imports the given changed paths under root.
// Directories are rescanned. It is the Watcher callback.
func (im *Importer) SyncPaths(
	ctx context.Context, root string, paths []string,
) []Result {
	var results []Result
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			rs, err := im.scanDir(ctx, root, p)
			if err != nil {
				log.Warn().Err(err).Str("path", p).Msg("inbox rescan failed")
			}
			results = append(results, rs...)
			continue
		}
		res, imported, err := im.syncInboxFile(ctx, root, p)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("inbox import failed")
			continue
		}
		if imported {
			results = append(results, res)
		}
	}
	return results
}
