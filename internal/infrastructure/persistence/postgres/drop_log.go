// Package postgres implements the PostgreSQL persistence layer for Bingo Hub.
package postgres

import (
	"context"
	"fmt"

	"github.com/gielinor-events/bingo-hub/internal/domain/drop"
)

// ══════════════════════════════════════════════════════════════════════════════
// DROP LOG IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// DropLog implements drop.Log for PostgreSQL. The drops table is append-only.
type DropLog struct {
	conn *Connection
}

// NewDropLog creates a new DropLog.
func NewDropLog(conn *Connection) *DropLog {
	return &DropLog{conn: conn}
}

// Append inserts a drop.
func (l *DropLog) Append(ctx context.Context, d *drop.Drop) error {
	_, err := l.conn.Exec(ctx, `
		INSERT INTO drops (
			id, player_name, item_name, quantity, rarity, item_value,
			screenshot_url, team_name, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		d.ID,
		d.PlayerName,
		d.ItemName,
		d.Quantity,
		d.Rarity,
		d.Value,
		d.ScreenshotURL,
		d.TeamName,
		d.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append drop: %w", err)
	}
	return nil
}

// ListRecent returns the most recent drops, newest first.
func (l *DropLog) ListRecent(ctx context.Context, limit int) ([]*drop.Drop, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.conn.Query(ctx, `
		SELECT id, player_name, item_name, quantity, rarity, item_value,
			   screenshot_url, team_name, occurred_at
		FROM drops
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list drops: %w", err)
	}
	defer rows.Close()

	var drops []*drop.Drop
	for rows.Next() {
		var d drop.Drop
		err := rows.Scan(
			&d.ID,
			&d.PlayerName,
			&d.ItemName,
			&d.Quantity,
			&d.Rarity,
			&d.Value,
			&d.ScreenshotURL,
			&d.TeamName,
			&d.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drop: %w", err)
		}
		drops = append(drops, &d)
	}
	return drops, rows.Err()
}

// Stats returns aggregate counts over the whole log.
func (l *DropLog) Stats(ctx context.Context) (drop.Stats, error) {
	var stats drop.Stats
	err := l.conn.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT player_name) FROM drops",
	).Scan(&stats.TotalDrops, &stats.UniquePlayers)
	if err != nil {
		return drop.Stats{}, fmt.Errorf("failed to read drop stats: %w", err)
	}
	return stats, nil
}
