//go:build integration

package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore(t *testing.T) {
	addr := os.Getenv("SCRY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SCRY_TEST_REDIS_ADDR not set - skipping integration test")
	}

	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	now := time.Now().UTC()
	clock := now
	s := redis.NewCacheStore(rdb, func() time.Time { return clock }, nil)
	hash := cache.Fingerprint("redis-integration", uuid.NewString())

	require.NoError(t, s.Put(ctx, &domain.CachedContextEntry{
		Hash: hash, ContentType: domain.CacheTypeAnalysis, Payload: []byte(`{"v":1}`),
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	got, err := s.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, domain.CacheTypeAnalysis, got.ContentType)

	clock = now.Add(2 * time.Hour)
	_, err = s.Get(ctx, hash)
	assert.ErrorIs(t, err, cache.ErrMiss)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
