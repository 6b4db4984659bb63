package redis

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "scry:cache:abc", key("abc"))
}

func TestDecode(t *testing.T) {
	entry, err := decode([]byte(`{"hash":"h","content_type":"analysis","payload":"e30=","created_at":"2026-01-01T00:00:00Z","expires_at":"2026-01-02T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "h", entry.Hash)
	assert.Equal(t, []byte("{}"), entry.Payload)

	_, err = decode([]byte("garbage"))
	assert.Error(t, err)
}

func TestPut_SkipsExpiredEntries(t *testing.T) {
	// The client points at a closed port; an attempted write would fail.
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewCacheStore(rdb, func() time.Time { return now }, nil)

	err := s.Put(context.Background(), &domain.CachedContextEntry{Hash: "h", ExpiresAt: now})
	assert.NoError(t, err)
}
