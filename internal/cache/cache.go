// Package cache provides the optional write-through key/value front
// described in spec.md §4.3, generalizing the teacher's internal/database
// Redis wrapper into the narrow Cache interface every manager depends on.
// The cache is never a source of truth: correctness must hold with
// Enabled=false or with every call failing.
package cache

import (
	"context"
	"time"
)

// Cache is the capability every manager depends on. Implementations: Redis
// (backed by go-redis) and a no-op (used when caching is disabled).
type Cache interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (map[string]string, bool, error)
	Set(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	UpdateField(ctx context.Context, key, field, value string) error
	Invalidate(ctx context.Context, key string) error
	CountKeys(ctx context.Context, prefix string) (int64, error)
	LimitExceeded(ctx context.Context, prefix string, limit int) (bool, error)
}

// KeyFor builds the conventional "<kind>:<id>" cache key used throughout
// the managers, e.g. KeyFor("operator", id.String()).
func KeyFor(kind, id string) string {
	return kind + ":" + id
}
