package cache

import (
	"context"
	"errors"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// ErrMiss is returned by Get when no live entry exists for a hash.
var ErrMiss = errors.New("cache miss")

// Store persists CachedContextEntry values.
// Writes are upserts: the last write for a hash wins.
type Store interface {
	// Put inserts or replaces the entry with the same hash.
	Put(ctx context.Context, entry *domain.CachedContextEntry) error

	// Get returns the entry for hash, or ErrMiss when it is absent or expired.
	Get(ctx context.Context, hash string) (*domain.CachedContextEntry, error)

	// DeleteExpired removes every entry whose expiry has passed and reports
	// how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// Clock returns the current time. Stores take one so expiry can be tested.
type Clock func() time.Time

// SystemClock is the default Clock.
func SystemClock() time.Time {
	return time.Now().UTC()
}
