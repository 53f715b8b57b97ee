package memory

import (
	"context"
	"sync"

	"github.com/gielinor-events/bingo-hub/internal/domain/drop"
)

// DropLog is the in-memory append-only drop log.
type DropLog struct {
	mu    sync.RWMutex
	drops []*drop.Drop
}

// NewDropLog creates an empty drop log.
func NewDropLog() *DropLog {
	return &DropLog{}
}

// Append implements drop.Log.
func (l *DropLog) Append(_ context.Context, d *drop.Drop) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	copied := *d
	l.drops = append(l.drops, &copied)
	return nil
}

// ListRecent implements drop.Log, returning newest first.
func (l *DropLog) ListRecent(_ context.Context, limit int) ([]*drop.Drop, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.drops) {
		limit = len(l.drops)
	}
	out := make([]*drop.Drop, 0, limit)
	for i := len(l.drops) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *l.drops[i]
		out = append(out, &copied)
	}
	return out, nil
}

// Stats implements drop.Log.
func (l *DropLog) Stats(_ context.Context) (drop.Stats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	players := make(map[string]struct{})
	for _, d := range l.drops {
		players[d.PlayerName] = struct{}{}
	}
	return drop.Stats{TotalDrops: len(l.drops), UniquePlayers: len(players)}, nil
}
