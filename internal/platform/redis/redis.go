// Package redis implements the context cache store on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
)

// KeyPrefix namespaces cache entries in the Redis keyspace.
const KeyPrefix = "scry:cache:"

const (
	dialTimeout = 5 * time.Second
	scanCount   = 200
)

// NewClient connects to the configured Redis server and pings it.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// CacheStore implements cache.Store. Entries carry a Redis TTL and are also
// checked against the clock on read, so a lagging expiry never serves a
// stale entry.
type CacheStore struct {
	rdb    goredis.Cmdable
	now    cache.Clock
	logger *slog.Logger
}

var _ cache.Store = (*CacheStore)(nil)

// NewCacheStore creates a store over rdb. A nil clock uses cache.SystemClock.
func NewCacheStore(rdb goredis.Cmdable, now cache.Clock, l *slog.Logger) *CacheStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if now == nil {
		now = cache.SystemClock
	}
	if l == nil {
		l = slog.Default()
	}
	return &CacheStore{
		rdb:    rdb,
		now:    now,
		logger: l.With(slog.String("component", "redis_cache_store")),
	}
}

func key(hash string) string {
	return KeyPrefix + hash
}

// Put implements cache.Store. An entry that is already expired is not written.
func (s *CacheStore) Put(ctx context.Context, entry *domain.CachedContextEntry) error {
	ttl := entry.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.rdb.Set(ctx, key(entry.Hash), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get implements cache.Store.
func (s *CacheStore) Get(ctx context.Context, hash string) (*domain.CachedContextEntry, error) {
	raw, err := s.rdb.Get(ctx, key(hash)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, cache.ErrMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	entry, err := decode(raw)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "dropping undecodable cache entry",
			slog.String("hash", hash), slog.String("error", err.Error()))
		return nil, cache.ErrMiss
	}
	if entry.IsExpired(s.now()) {
		return nil, cache.ErrMiss
	}
	return entry, nil
}

// DeleteExpired implements cache.Store. Redis evicts entries on its own;
// this removes entries that are expired by the store's clock and any that
// cannot be decoded.
func (s *CacheStore) DeleteExpired(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		removed int64
		now     = s.now()
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, KeyPrefix+"*", scanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan: %w", err)
		}

		for _, k := range keys {
			raw, err := s.rdb.Get(ctx, k).Bytes()
			if errors.Is(err, goredis.Nil) {
				continue
			}
			if err != nil {
				return removed, fmt.Errorf("redis get: %w", err)
			}
			if entry, err := decode(raw); err == nil && !entry.IsExpired(now) {
				continue
			}
			n, err := s.rdb.Del(ctx, k).Result()
			if err != nil {
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += n
		}

		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func decode(raw []byte) (*domain.CachedContextEntry, error) {
	var entry domain.CachedContextEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
