package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

// PostgresCacheStore implements cache.Store on the cached_contexts table.
type PostgresCacheStore struct {
	db     store.DBTX
	now    cache.Clock
	logger *slog.Logger
}

var _ cache.Store = (*PostgresCacheStore)(nil)

// NewPostgresCacheStore creates a cache store over db. A nil clock uses
// cache.SystemClock.
func NewPostgresCacheStore(db store.DBTX, now cache.Clock, logger *slog.Logger) *PostgresCacheStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if now == nil {
		now = cache.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCacheStore{
		db:     db,
		now:    now,
		logger: logger.With(slog.String("component", "cache_store")),
	}
}

// Put implements cache.Store as an upsert.
func (s *PostgresCacheStore) Put(ctx context.Context, entry *domain.CachedContextEntry) error {
	const query = `
		INSERT INTO cached_contexts (hash, content_type, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hash) DO UPDATE
		SET content_type = EXCLUDED.content_type,
		    payload = EXCLUDED.payload,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at`

	_, err := s.db.ExecContext(ctx, query,
		entry.Hash, entry.ContentType, entry.Payload, entry.CreatedAt, entry.ExpiresAt)
	if err != nil {
		return store.NewStoreError("cached_context", "put", "upsert failed", MapError(err))
	}
	return nil
}

// Get implements cache.Store. Expired rows are filtered in the query.
func (s *PostgresCacheStore) Get(ctx context.Context, hash string) (*domain.CachedContextEntry, error) {
	const query = `
		SELECT hash, content_type, payload, created_at, expires_at
		FROM cached_contexts
		WHERE hash = $1 AND expires_at > $2`

	var entry domain.CachedContextEntry
	err := s.db.QueryRowContext(ctx, query, hash, s.now()).Scan(
		&entry.Hash,
		&entry.ContentType,
		&entry.Payload,
		&entry.CreatedAt,
		&entry.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cache.ErrMiss
		}
		return nil, store.NewStoreError("cached_context", "get", "query failed", MapError(err))
	}
	return &entry, nil
}

// DeleteExpired implements cache.Store.
func (s *PostgresCacheStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cached_contexts WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, store.NewStoreError("cached_context", "sweep", "delete failed", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
