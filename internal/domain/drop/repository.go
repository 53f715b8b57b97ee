package drop

import (
	"context"
)

// Stats summarizes the drop log for the stats endpoint.
type Stats struct {
	TotalDrops    int `json:"total_drops"`
	UniquePlayers int `json:"unique_players"`
}

// Log is the append-only drop store.
type Log interface {
	// Append persists a drop. Drops are never updated or deleted.
	Append(ctx context.Context, d *Drop) error

	// ListRecent returns up to limit drops, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Drop, error)

	// Stats returns aggregate counts over the whole log.
	Stats(ctx context.Context) (Stats, error)
}
