package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// PostgresSessionStore implements store.SessionStore.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

// NewPostgresSessionStore creates a session store over db.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// WithTx implements store.SessionStore.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{db: tx, logger: s.logger}
}

// Create implements store.SessionStore.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.GenerationSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		return store.NewStoreError("session", "create", "invalid session", fmt.Errorf("%w: %v", store.ErrInvalidEntity, err))
	}

	const query = `
		INSERT INTO generation_sessions
			(id, owner_id, content_type, content_hash, status, error_message, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.OwnerID,
		string(session.ContentType),
		session.ContentHash,
		string(session.Status),
		session.ErrorMessage,
		session.CreatedAt,
		nullTime(session.CompletedAt),
	)
	if err != nil {
		log.Error("failed to create generation session",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("session", "create", "insert failed", MapError(err))
	}

	log.Debug("generation session created", slog.String("session_id", session.ID.String()))
	return nil
}

// GetByID implements store.SessionStore.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationSession, error) {
	const query = `
		SELECT id, owner_id, content_type, content_hash, status, error_message, created_at, completed_at
		FROM generation_sessions
		WHERE id = $1`

	var (
		session     domain.GenerationSession
		contentType string
		status      string
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.OwnerID,
		&contentType,
		&session.ContentHash,
		&status,
		&session.ErrorMessage,
		&session.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrSessionNotFound)
	}

	session.ContentType = domain.ContentType(contentType)
	session.Status = domain.SessionStatus(status)
	session.CompletedAt = timePtr(completedAt)
	return &session, nil
}

// UpdateStatus implements store.SessionStore.
func (s *PostgresSessionStore) UpdateStatus(
	ctx context.Context,
	session *domain.GenerationSession,
	from domain.SessionStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	const query = `
		UPDATE generation_sessions
		SET status = $3, completed_at = $4, error_message = $5, content_hash = $6
		WHERE id = $1 AND status = $2`

	result, err := s.db.ExecContext(ctx, query,
		session.ID,
		string(from),
		string(session.Status),
		nullTime(session.CompletedAt),
		session.ErrorMessage,
		session.ContentHash,
	)
	if err != nil {
		return store.NewStoreError("session", "update", "status update failed", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrStatusConflict); err != nil {
		if _, getErr := s.GetByID(ctx, session.ID); store.IsNotFoundError(getErr) {
			return store.ErrSessionNotFound
		}
		log.Warn("session status changed concurrently",
			slog.String("session_id", session.ID.String()),
			slog.String("expected", string(from)),
			slog.String("target", string(session.Status)))
		return err
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
