// Package redis implements Redis caching for Bingo Hub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gielinor-events/bingo-hub/internal/domain/drop"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECENT DROPS CACHE
// ══════════════════════════════════════════════════════════════════════════════

// DropsCache keeps a capped list of recent drops for the live feed, newest
// first. The durable drop log is authoritative; this list only spares the
// feed endpoint a database round trip.
type DropsCache struct {
	cache *Cache
	key   string
	cap   int64
}

// NewDropsCache creates a DropsCache keeping at most capacity entries.
func NewDropsCache(cache *Cache, capacity int) *DropsCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &DropsCache{
		cache: cache,
		key:   PrefixDrops + "recent",
		cap:   int64(capacity),
	}
}

// Push prepends a drop and trims the list to capacity.
func (d *DropsCache) Push(ctx context.Context, dr *drop.Drop) error {
	data, err := json.Marshal(dr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	pipe := d.cache.Client().Pipeline()
	pipe.LPush(ctx, d.key, data)
	pipe.LTrim(ctx, d.key, 0, d.cap-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit drops, newest first.
func (d *DropsCache) Recent(ctx context.Context, limit int) ([]*drop.Drop, error) {
	if limit <= 0 || int64(limit) > d.cap {
		limit = int(d.cap)
	}

	values, err := d.cache.Client().LRange(ctx, d.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	drops := make([]*drop.Drop, 0, len(values))
	for _, v := range values {
		var dr drop.Drop
		if err := json.Unmarshal([]byte(v), &dr); err != nil {
			continue
		}
		drops = append(drops, &dr)
	}
	return drops, nil
}
