package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

// Ledger records the lifecycle of generation sessions.
type Ledger interface {
	// Begin stores a new processing session.
	Begin(ctx context.Context, session *domain.GenerationSession) error
	// Complete stores cards and marks the session generated.
	Complete(ctx context.Context, session *domain.GenerationSession, cards []*domain.CandidateCard) error
	// Fail marks the session failed with msg.
	Fail(ctx context.Context, session *domain.GenerationSession, msg string) error
}

// SessionReader looks up recorded sessions and their candidates.
type SessionReader interface {
	GetSession(ctx context.Context, id uuid.UUID) (*domain.GenerationSession, []*domain.CandidateCard, error)
}

// StoreLedger is a Ledger backed by the session and candidate stores.
type StoreLedger struct {
	sessions   store.SessionStore
	candidates store.CandidateStore
	tx         store.Transactor
	now        func() time.Time
	logger     *slog.Logger
}

var (
	_ Ledger        = (*StoreLedger)(nil)
	_ SessionReader = (*StoreLedger)(nil)
)

// NewStoreLedger creates a StoreLedger.
func NewStoreLedger(sessions store.SessionStore, candidates store.CandidateStore, tx store.Transactor, l *slog.Logger) *StoreLedger {
	if sessions == nil {
		panic("session store cannot be nil")
	}
	if candidates == nil {
		panic("candidate store cannot be nil")
	}
	if tx == nil {
		panic("transactor cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}
	return &StoreLedger{
		sessions:   sessions,
		candidates: candidates,
		tx:         tx,
		now:        time.Now,
		logger:     l.With(slog.String("component", "session_ledger")),
	}
}

// Begin implements Ledger.
func (l *StoreLedger) Begin(ctx context.Context, session *domain.GenerationSession) error {
	if err := l.sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Complete implements Ledger. Cards and the status change commit together.
func (l *StoreLedger) Complete(ctx context.Context, session *domain.GenerationSession, cards []*domain.CandidateCard) error {
	from := session.Status
	if err := session.Transition(domain.SessionStatusGenerated, l.now(), ""); err != nil {
		return err
	}
	return l.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if len(cards) > 0 {
			if err := l.candidates.WithTx(tx).CreateMultiple(ctx, cards); err != nil {
				return fmt.Errorf("store candidates: %w", err)
			}
		}
		if err := l.sessions.WithTx(tx).UpdateStatus(ctx, session, from); err != nil {
			return fmt.Errorf("mark session generated: %w", err)
		}
		return nil
	})
}

// Fail implements Ledger.
func (l *StoreLedger) Fail(ctx context.Context, session *domain.GenerationSession, msg string) error {
	from := session.Status
	if err := session.Transition(domain.SessionStatusFailed, l.now(), msg); err != nil {
		return err
	}
	if err := l.sessions.UpdateStatus(ctx, session, from); err != nil {
		return fmt.Errorf("mark session failed: %w", err)
	}
	return nil
}

// GetSession implements SessionReader.
func (l *StoreLedger) GetSession(ctx context.Context, id uuid.UUID) (*domain.GenerationSession, []*domain.CandidateCard, error) {
	session, err := l.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	cards, err := l.candidates.ListBySession(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list candidates: %w", err)
	}
	return session, cards, nil
}
