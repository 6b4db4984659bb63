package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// PostgresCardStore implements store.CardStore for reviewable cards.
// Schedule writes are conditional on the version column.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.CardStore = (*PostgresCardStore)(nil)

// NewPostgresCardStore creates a reviewable card store over db.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// WithTx implements store.CardStore.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

const cardColumns = `id, owner_id, session_id, subject, question, answer, ease_factor,
	interval_days, repetition_count, next_review_date, last_reviewed_at, version,
	created_at, updated_at`

// CreateMultiple implements store.CardStore.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.ReviewableCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if len(cards) == 0 {
		return nil
	}

	const query = `
		INSERT INTO reviewable_cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return store.NewStoreError("card", "create", "prepare failed", MapError(err))
	}
	defer func() { _ = stmt.Close() }()

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return store.NewStoreError("card", "create", "invalid card", err)
		}
		_, err := stmt.ExecContext(ctx,
			card.ID,
			card.OwnerID,
			nullUUID(card.SessionID),
			card.Subject,
			card.Question,
			card.Answer,
			card.EaseFactor,
			card.Interval,
			card.RepetitionCount,
			card.NextReviewDate,
			nullTime(card.LastReviewedAt),
			card.Version,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to insert reviewable card",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
			return store.NewStoreError("card", "create", "insert failed", MapError(err))
		}
	}

	log.Debug("reviewable cards created", slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.CardStore.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewableCard, error) {
	query := `SELECT ` + cardColumns + ` FROM reviewable_cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err, store.ErrCardNotFound)
	}
	return card, nil
}

// UpdateSchedule implements store.CardStore.
func (s *PostgresCardStore) UpdateSchedule(ctx context.Context, card *domain.ReviewableCard, expectedVersion int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return store.NewStoreError("card", "update", "invalid schedule", err)
	}

	const query = `
		UPDATE reviewable_cards
		SET ease_factor = $3, interval_days = $4, repetition_count = $5,
		    next_review_date = $6, last_reviewed_at = $7, updated_at = $8,
		    version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`

	var newVersion int64
	err := s.db.QueryRowContext(ctx, query,
		card.ID,
		expectedVersion,
		card.EaseFactor,
		card.Interval,
		card.RepetitionCount,
		card.NextReviewDate,
		nullTime(card.LastReviewedAt),
		card.UpdatedAt,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.GetByID(ctx, card.ID); store.IsNotFoundError(getErr) {
				return store.ErrCardNotFound
			}
			log.Debug("card version conflict",
				slog.String("card_id", card.ID.String()),
				slog.Int64("expected_version", expectedVersion))
			return store.ErrVersionConflict
		}
		return store.NewStoreError("card", "update", "schedule update failed", MapError(err))
	}

	card.Version = newVersion
	return nil
}

// Due implements store.CardStore.
func (s *PostgresCardStore) Due(ctx context.Context, ownerID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewableCard, error) {
	query := `SELECT ` + cardColumns + `
		FROM reviewable_cards
		WHERE owner_id = $1 AND next_review_date <= $2
		ORDER BY next_review_date, id
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, ownerID, now, limit)
	if err != nil {
		return nil, store.NewStoreError("card", "due", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.ReviewableCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return cards, nil
}

// Delete implements store.CardStore.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviewable_cards WHERE id = $1`, id)
	if err != nil {
		return store.NewStoreError("card", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrCardNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.ReviewableCard, error) {
	var (
		card         domain.ReviewableCard
		sessionID    uuid.NullUUID
		lastReviewed sql.NullTime
	)
	err := row.Scan(
		&card.ID,
		&card.OwnerID,
		&sessionID,
		&card.Subject,
		&card.Question,
		&card.Answer,
		&card.EaseFactor,
		&card.Interval,
		&card.RepetitionCount,
		&card.NextReviewDate,
		&lastReviewed,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sessionID.Valid {
		card.SessionID = sessionID.UUID
	}
	card.LastReviewedAt = timePtr(lastReviewed)
	card.NextReviewDate = card.NextReviewDate.UTC()
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()
	return &card, nil
}
