package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

// PostgresAnalyticsStore implements store.AnalyticsStore.
type PostgresAnalyticsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AnalyticsStore = (*PostgresAnalyticsStore)(nil)

// NewPostgresAnalyticsStore creates an analytics sink over db.
func NewPostgresAnalyticsStore(db store.DBTX, logger *slog.Logger) *PostgresAnalyticsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAnalyticsStore{
		db:     db,
		logger: logger.With(slog.String("component", "analytics_store")),
	}
}

// InsertEvents implements store.AnalyticsStore. Re-delivered events with an
// existing id are ignored.
func (s *PostgresAnalyticsStore) InsertEvents(ctx context.Context, events []*domain.AnalyticsEvent) error {
	const query = `
		INSERT INTO analytics_events (id, event_type, owner_id, session_id, card_id, properties, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	for _, ev := range events {
		props := ev.Properties
		if props == nil {
			props = map[string]any{}
		}
		propsJSON, err := json.Marshal(props)
		if err != nil {
			return fmt.Errorf("failed to encode properties of event %s: %w", ev.ID, err)
		}

		_, err = s.db.ExecContext(ctx, query,
			ev.ID,
			string(ev.Type),
			nullUUID(ev.OwnerID),
			nullUUID(ev.SessionID),
			nullUUID(ev.CardID),
			propsJSON,
			ev.OccurredAt,
		)
		if err != nil {
			return store.NewStoreError("analytics_event", "insert", "insert failed", MapError(err))
		}
	}
	return nil
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
