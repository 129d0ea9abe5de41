package db

import (
	"context"
	"fmt"
)

// Stats holds row counts for one tenant.
type Stats struct {
	SessionCount int `json:"session_count"`
	MessageCount int `json:"message_count"`
	LeadCount    int `json:"lead_count"`
}

// GetStats returns the tenant's session, message and lead counts.
func (db *DB) GetStats(ctx context.Context, userID string) (Stats, error) {
	if err := requireTenant(userID); err != nil {
		return Stats{}, err
	}
	const query = `
		SELECT
			(SELECT COUNT(DISTINCT session_id) FROM messages WHERE user_id = ?1),
			(SELECT COUNT(*) FROM messages WHERE user_id = ?1),
			(SELECT COUNT(*) FROM leads WHERE user_id = ?1)`

	var s Stats
	err := db.reader.QueryRowContext(ctx, query, userID).Scan(
		&s.SessionCount,
		&s.MessageCount,
		&s.LeadCount,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("fetching stats: %w", err)
	}
	return s, nil
}
