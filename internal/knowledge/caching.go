package knowledge

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
)

// CachingSource is a read-through cache in front of another Source.
// Cache failures degrade to a direct search.
type CachingSource struct {
	next   Source
	cache  *cache.JSONCache
	logger *slog.Logger
}

var _ Source = (*CachingSource)(nil)

// NewCachingSource wraps next with c.
func NewCachingSource(next Source, c *cache.JSONCache, l *slog.Logger) *CachingSource {
	if l == nil {
		l = slog.Default()
	}
	return &CachingSource{
		next:   next,
		cache:  c,
		logger: l.With(slog.String("component", "knowledge_cache")),
	}
}

// QueryKey is the cache fingerprint of q.
func QueryKey(q Query) string {
	return cache.Fingerprint("knowledge", q.Text, q.Subject, strconv.Itoa(q.Limit))
}

// Search implements Source.
func (s *CachingSource) Search(ctx context.Context, q Query) ([]Snippet, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := QueryKey(q)

	var cached []Snippet
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.WarnContext(ctx, "knowledge cache read failed", "error", err)
	}
	if hit {
		log.DebugContext(ctx, "knowledge cache hit", "results", len(cached))
		return cached, nil
	}

	snippets, err := s.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, key, snippets); err != nil {
		log.WarnContext(ctx, "knowledge cache write failed", "error", err)
	}
	return snippets, nil
}
