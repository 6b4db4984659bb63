package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// PostgresCandidateStore implements store.CandidateStore. Concepts and the
// quality score are stored as JSONB.
type PostgresCandidateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.CandidateStore = (*PostgresCandidateStore)(nil)

// NewPostgresCandidateStore creates a candidate card store over db.
func NewPostgresCandidateStore(db store.DBTX, logger *slog.Logger) *PostgresCandidateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCandidateStore{
		db:     db,
		logger: logger.With(slog.String("component", "candidate_store")),
	}
}

// WithTx implements store.CandidateStore.
func (s *PostgresCandidateStore) WithTx(tx *sql.Tx) store.CandidateStore {
	return &PostgresCandidateStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.CandidateStore. Cards keep their slice
// order through the position column.
func (s *PostgresCandidateStore) CreateMultiple(ctx context.Context, cards []*domain.CandidateCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if len(cards) == 0 {
		return nil
	}

	const query = `
		INSERT INTO candidate_cards
			(id, session_id, position, question, answer, difficulty, subject,
			 concepts, confidence, quality, explanation, memory_tip, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return store.NewStoreError("candidate", "create", "prepare failed", MapError(err))
	}
	defer func() { _ = stmt.Close() }()

	for i, card := range cards {
		if err := card.Validate(); err != nil {
			return store.NewStoreError("candidate", "create",
				fmt.Sprintf("invalid card at position %d", i),
				fmt.Errorf("%w: %v", store.ErrInvalidEntity, err))
		}

		concepts := card.Concepts
		if concepts == nil {
			concepts = []string{}
		}
		conceptsJSON, err := json.Marshal(concepts)
		if err != nil {
			return fmt.Errorf("failed to encode concepts: %w", err)
		}
		qualityJSON, err := json.Marshal(card.QualityScore)
		if err != nil {
			return fmt.Errorf("failed to encode quality score: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			card.ID,
			card.SessionID,
			i,
			card.Question,
			card.Answer,
			string(card.Difficulty),
			card.Subject,
			conceptsJSON,
			domain.Clamp01(card.Confidence),
			qualityJSON,
			card.Explanation,
			card.MemoryTip,
			string(card.Source),
		)
		if err != nil {
			log.Error("failed to insert candidate card",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
			return store.NewStoreError("candidate", "create", "insert failed", MapError(err))
		}
	}

	log.Debug("candidate cards created", slog.Int("count", len(cards)))
	return nil
}

// ListBySession implements store.CandidateStore.
func (s *PostgresCandidateStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.CandidateCard, error) {
	const query = `
		SELECT id, session_id, question, answer, difficulty, subject,
		       concepts, confidence, quality, explanation, memory_tip, source
		FROM candidate_cards
		WHERE session_id = $1
		ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, store.NewStoreError("candidate", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.CandidateCard
	for rows.Next() {
		var (
			card         domain.CandidateCard
			difficulty   string
			source       string
			conceptsJSON []byte
			qualityJSON  []byte
		)
		if err := rows.Scan(
			&card.ID,
			&card.SessionID,
			&card.Question,
			&card.Answer,
			&difficulty,
			&card.Subject,
			&conceptsJSON,
			&card.Confidence,
			&qualityJSON,
			&card.Explanation,
			&card.MemoryTip,
			&source,
		); err != nil {
			return nil, MapError(err)
		}
		if err := json.Unmarshal(conceptsJSON, &card.Concepts); err != nil {
			return nil, fmt.Errorf("failed to decode concepts for card %s: %w", card.ID, err)
		}
		if err := json.Unmarshal(qualityJSON, &card.QualityScore); err != nil {
			return nil, fmt.Errorf("failed to decode quality score for card %s: %w", card.ID, err)
		}
		card.Difficulty = domain.Difficulty(difficulty)
		card.Source = domain.CardSource(source)
		cards = append(cards, &card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return cards, nil
}
