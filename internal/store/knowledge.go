package store

import (
	"context"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// KnowledgeStore holds the reference question bank the knowledge lookup
// searches and the quiz endpoint samples from.
type KnowledgeStore interface {
	// Import inserts items and returns how many rows were written.
	Import(ctx context.Context, items []*domain.KnowledgeItem) (int, error)

	// Sample returns up to n items whose topic contains topic
	// (case-insensitive). An empty or unmatched topic samples the whole base.
	Sample(ctx context.Context, topic string, n int) ([]*domain.KnowledgeItem, error)

	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)
}

// AnalyticsStore is the sink for analytics events.
type AnalyticsStore interface {
	InsertEvents(ctx context.Context, events []*domain.AnalyticsEvent) error
}
