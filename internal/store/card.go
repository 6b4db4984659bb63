package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
)

// CardStore persists reviewable cards and their scheduling state.
type CardStore interface {
	// CreateMultiple inserts approved cards; it should run inside a transaction.
	CreateMultiple(ctx context.Context, cards []*domain.ReviewableCard) error

	// GetByID returns ErrCardNotFound when no card has the id.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewableCard, error)

	// UpdateSchedule writes the scheduling fields of card only if the stored
	// version equals expectedVersion, and bumps the version by one.
	// On success card.Version holds the new version.
	// Returns ErrVersionConflict when another writer got there first.
	UpdateSchedule(ctx context.Context, card *domain.ReviewableCard, expectedVersion int64) error

	// Due returns the owner's cards with next_review_date <= now, earliest first.
	Due(ctx context.Context, ownerID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewableCard, error)

	// Delete removes a card. Returns ErrCardNotFound when it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CardStore bound to tx.
	WithTx(tx *sql.Tx) CardStore
}
