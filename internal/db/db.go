package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wesm/leadsview/internal/timeutil"
)

//go:embed schema.sql
var schemaSQL string

// ErrMissingTenant is returned by every query and write that is
// called without a user ID. Rows are never read across tenants.
var ErrMissingTenant = errors.New("missing tenant user id")

// storedLayout is the fixed-width UTC layout used for created_at
// columns. Fixed width keeps ORDER BY created_at chronological.
const storedLayout = "2006-01-02T15:04:05.000000000Z"

func formatStored(t time.Time) string {
	return t.UTC().Format(storedLayout)
}

func parseStored(s string) time.Time {
	t, _ := timeutil.Parse(s)
	return t
}

// DB manages a write connection and a read-only pool.
type DB struct {
	writer *sql.DB
	reader *sql.DB
	mu     sync.Mutex // serializes writes
	path   string
}

// makeDSN builds a SQLite connection string with shared pragmas.
func makeDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_cache_size", "-16000")
	if readOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_synchronous", "NORMAL")
	}
	return path + "?" + params.Encode()
}

// Open creates or opens a SQLite database at the given path,
// applies the schema and pending column migrations, and returns
// a DB with separate writer and reader connections.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	writer, err := sql.Open("sqlite3", makeDSN(path, false))
	if err != nil {
		return nil, fmt.Errorf("opening writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	// The read-only pool cannot create the file, so apply the
	// schema through the writer first.
	db := &DB{writer: writer, path: path}
	if err := db.init(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	reader, err := sql.Open("sqlite3", makeDSN(path, true))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(4)
	db.reader = reader
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// ensureColumn adds a column if it doesn't already exist.
func (db *DB) ensureColumn(
	table, column, definition string,
) error {
	exists := func() (bool, error) {
		var count int
		err := db.writer.QueryRow(
			"SELECT count(*) FROM pragma_table_info(?) WHERE name = ?",
			table, column,
		).Scan(&count)
		return count > 0, err
	}

	ok, err := exists()
	if err != nil {
		return fmt.Errorf(
			"checking column %s.%s: %w", table, column, err,
		)
	}
	if ok {
		return nil
	}
	_, err = db.writer.Exec(fmt.Sprintf(
		"ALTER TABLE %s ADD COLUMN %s %s",
		table, column, definition,
	))
	if err == nil {
		return nil
	}
	// Another process may have added it concurrently.
	if ok, checkErr := exists(); checkErr == nil && ok {
		return nil
	}
	return err
}

func (db *DB) init() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, err := db.writer.Exec(schemaSQL); err != nil {
		return err
	}

	// Migration: lead source tracking was added after the first
	// release; older databases lack the column.
	if err := db.ensureColumn(
		"leads", "source", "TEXT NOT NULL DEFAULT ''",
	); err != nil {
		return fmt.Errorf("adding source column: %w", err)
	}
	if _, err := db.writer.Exec(
		`CREATE INDEX IF NOT EXISTS idx_leads_user_source
		 ON leads(user_id, source)`,
	); err != nil {
		return fmt.Errorf("creating source index: %w", err)
	}
	return nil
}

// Close closes both writer and reader connections.
func (db *DB) Close() error {
	var readerErr error
	if db.reader != nil {
		readerErr = db.reader.Close()
	}
	return errors.Join(db.writer.Close(), readerErr)
}

// Update executes fn within a write lock and transaction.
// The transaction is committed if fn returns nil, rolled back
// otherwise.
func (db *DB) Update(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.writer.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Reader returns the read-only connection pool.
func (db *DB) Reader() *sql.DB {
	return db.reader
}

func requireTenant(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingTenant
	}
	return nil
}
