package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// JSONCache stores JSON-encoded values of one content type in a Store.
type JSONCache struct {
	store       Store
	contentType string
	ttl         time.Duration
	now         Clock
	logger      *slog.Logger
}

// NewJSONCache creates a typed view over store.
func NewJSONCache(store Store, contentType string, ttl time.Duration, l *slog.Logger) *JSONCache {
	if store == nil {
		panic("cache store cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if l == nil {
		l = slog.Default()
	}
	return &JSONCache{
		store:       store,
		contentType: contentType,
		ttl:         ttl,
		now:         SystemClock,
		logger:      l.With(slog.String("component", "cache"), slog.String("content_type", contentType)),
	}
}

// WithClock replaces the clock used to stamp entries.
func (c *JSONCache) WithClock(now Clock) *JSONCache {
	c.now = now
	return c
}

// Get decodes the live entry for key into v. It reports false on a miss.
// Entries of another content type are treated as misses.
func (c *JSONCache) Get(ctx context.Context, key string, v any) (bool, error) {
	entry, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if entry.ContentType != c.contentType {
		return false, nil
	}
	if err := json.Unmarshal(entry.Payload, v); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).WarnContext(ctx, "discarding undecodable cache entry",
			"hash", key,
			"error", err)
		return false, nil
	}
	return true, nil
}

// Put encodes v and stores it under key for the configured TTL.
func (c *JSONCache) Put(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	now := c.now()
	entry := &domain.CachedContextEntry{
		Hash:        key,
		ContentType: c.contentType,
		Payload:     payload,
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.ttl),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
