package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
)

// SessionStore persists generation sessions.
type SessionStore interface {
	// Create inserts a new session. The session must be valid.
	Create(ctx context.Context, session *domain.GenerationSession) error

	// GetByID returns ErrSessionNotFound when no session has the id.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationSession, error)

	// UpdateStatus writes the session's status, completion time, error message
	// and content hash, provided the stored status still equals from.
	// Returns ErrStatusConflict when it does not and ErrSessionNotFound when
	// the session is gone.
	UpdateStatus(ctx context.Context, session *domain.GenerationSession, from domain.SessionStatus) error

	// WithTx returns a SessionStore bound to tx.
	WithTx(tx *sql.Tx) SessionStore
}

// CandidateStore persists candidate cards produced by a generation session.
type CandidateStore interface {
	// CreateMultiple inserts cards; it should run inside a transaction.
	CreateMultiple(ctx context.Context, cards []*domain.CandidateCard) error

	// ListBySession returns the session's candidates in insertion order.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.CandidateCard, error)

	// WithTx returns a CandidateStore bound to tx.
	WithTx(tx *sql.Tx) CandidateStore
}
