package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wesm/leadsview/internal/report"
)

const selectLeadCols = `id, name, email, phone, message, source, created_at`

// ListLeads returns every lead of userID in insertion order.
// Ordering for display is left to the caller.
func (db *DB) ListLeads(
	ctx context.Context, userID string,
) ([]report.LeadRecord, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	rows, err := db.reader.QueryContext(ctx, `
		SELECT `+selectLeadCols+`
		FROM leads
		WHERE user_id = ?
		ORDER BY rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying leads: %w", err)
	}
	defer rows.Close()

	var leads []report.LeadRecord
	for rows.Next() {
		var (
			l       report.LeadRecord
			created string
		)
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Email, &l.Phone,
			&l.Message, &l.Source, &created,
		); err != nil {
			return nil, fmt.Errorf("scanning lead: %w", err)
		}
		l.OccurredAt = parseStored(created)
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// UpsertLeads writes leads for userID in one transaction, keyed
// by (user_id, id). Returns the number of rows written.
func (db *DB) UpsertLeads(
	userID string, leads []report.LeadRecord,
) (int, error) {
	if err := requireTenant(userID); err != nil {
		return 0, err
	}
	n := 0
	err := db.Update(func(tx *sql.Tx) error {
		var err error
		n, err = upsertLeadsTx(tx, userID, leads)
		return err
	})
	return n, err
}

func upsertLeadsTx(
	tx *sql.Tx, userID string, leads []report.LeadRecord,
) (int, error) {
	stmt, err := tx.Prepare(`
		INSERT INTO leads
			(user_id, id, name, email, phone, message, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			message = excluded.message,
			source = excluded.source,
			created_at = excluded.created_at`)
	if err != nil {
		return 0, fmt.Errorf("preparing lead insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range leads {
		if _, err := stmt.Exec(
			userID, l.ID, l.Name, l.Email, l.Phone,
			l.Message, l.Source, formatStored(l.OccurredAt),
		); err != nil {
			return 0, fmt.Errorf("inserting lead %s: %w", l.ID, err)
		}
	}
	return len(leads), nil
}
