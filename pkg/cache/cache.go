package cache

import (
	"context"
	"time"
)

// Default TTLs for cached entries.
const (
	// PlanTTL bounds how long a split plan stays cached. Plans are pure
	// functions of their input, so the TTL only limits disk and memory use.
	PlanTTL = 7 * 24 * time.Hour

	// RenderTTL bounds how long rendered DOT/SVG output stays cached.
	RenderTTL = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiration.
// A miss is reported as (nil, false, nil), never as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}
