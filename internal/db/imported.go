package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// ImportedFile is the fingerprint of an inbox file at the time
// it was last loaded.
type ImportedFile struct {
	Path   string
	Size   int64
	MTime  int64
	UserID string
	Rows   int
}

// Unchanged reports whether a file with the given size and mtime
// matches this fingerprint.
func (f ImportedFile) Unchanged(size, mtime int64) bool {
	return f.Size == size && f.MTime == mtime
}

// GetImportedFile returns the stored fingerprint for path, or
// false when the file was never imported.
func (db *DB) GetImportedFile(path string) (ImportedFile, bool, error) {
	var f ImportedFile
	err := db.reader.QueryRow(`
		SELECT file_path, file_size, file_mtime, user_id, rows
		FROM imported_files WHERE file_path = ?`, path,
	).Scan(&f.Path, &f.Size, &f.MTime, &f.UserID, &f.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return ImportedFile{}, false, nil
	}
	if err != nil {
		return ImportedFile{}, false, fmt.Errorf(
			"loading imported file %s: %w", path, err,
		)
	}
	return f, true, nil
}

// RecordImportedFile stores the fingerprint of a loaded file.
func (db *DB) RecordImportedFile(f ImportedFile) error {
	return db.Update(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO imported_files
				(file_path, file_size, file_mtime, user_id, rows)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(file_path) DO UPDATE SET
				file_size = excluded.file_size,
				file_mtime = excluded.file_mtime,
				user_id = excluded.user_id,
				rows = excluded.rows`,
			f.Path, f.Size, f.MTime, f.UserID, f.Rows,
		)
		if err != nil {
			return fmt.Errorf(
				"recording imported file %s: %w", f.Path, err,
			)
		}
		return nil
	})
}

// DeleteImportedFile forgets a fingerprint so the next scan
// reloads the file.
func (db *DB) DeleteImportedFile(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.writer.Exec(
		"DELETE FROM imported_files WHERE file_path = ?", path,
	)
	return err
}
