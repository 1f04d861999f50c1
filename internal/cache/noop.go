package cache

import (
	"context"
	"time"
)

// Noop satisfies Cache with every read reported as a miss and every write
// ignored. Used when cache.enabled=false so callers never need a nil check.
type Noop struct{}

func (Noop) Exists(context.Context, string) (bool, error)                    { return false, nil }
func (Noop) Get(context.Context, string) (map[string]string, bool, error)    { return nil, false, nil }
func (Noop) Set(context.Context, string, map[string]string, time.Duration) error { return nil }
func (Noop) UpdateField(context.Context, string, string, string) error       { return nil }
func (Noop) Invalidate(context.Context, string) error                        { return nil }
func (Noop) CountKeys(context.Context, string) (int64, error)                { return 0, nil }
func (Noop) LimitExceeded(context.Context, string, int) (bool, error)        { return false, nil }
