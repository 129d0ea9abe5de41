package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wesm/leadsview/internal/report"
)

const selectMessageCols = `id, session_id, sender, message, created_at`

// ListMessages returns every message of userID ascending by
// created_at. Messages with equal timestamps keep insertion
// order.
func (db *DB) ListMessages(
	ctx context.Context, userID string,
) ([]report.MessageEvent, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	rows, err := db.reader.QueryContext(ctx, `
		SELECT `+selectMessageCols+`
		FROM messages
		WHERE user_id = ?
		ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]report.MessageEvent, error) {
	var msgs []report.MessageEvent
	for rows.Next() {
		var (
			m       report.MessageEvent
			sender  string
			created string
		)
		if err := rows.Scan(
			&m.ID, &m.SessionID, &sender, &m.Text, &created,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Sender = report.Sender(sender)
		m.OccurredAt = parseStored(created)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// UpsertMessages writes msgs for userID in one transaction.
// Rows are keyed by (user_id, id); re-importing an existing ID
// overwrites it in place. Returns the number of rows written.
func (db *DB) UpsertMessages(
	userID string, msgs []report.MessageEvent,
) (int, error) {
	if err := requireTenant(userID); err != nil {
		return 0, err
	}
	n := 0
	err := db.Update(func(tx *sql.Tx) error {
		var err error
		n, err = upsertMessagesTx(tx, userID, msgs)
		return err
	})
	return n, err
}

func upsertMessagesTx(
	tx *sql.Tx, userID string, msgs []report.MessageEvent,
) (int, error) {
	stmt, err := tx.Prepare(`
		INSERT INTO messages
			(user_id, id, session_id, sender, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			session_id = excluded.session_id,
			sender = excluded.sender,
			message = excluded.message,
			created_at = excluded.created_at`)
	if err != nil {
		return 0, fmt.Errorf("preparing message insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		if _, err := stmt.Exec(
			userID, m.ID, m.SessionID, string(m.Sender),
			m.Text, formatStored(m.OccurredAt),
		); err != nil {
			return 0, fmt.Errorf(
				"inserting message %s: %w", m.ID, err,
			)
		}
	}
	return len(msgs), nil
}
