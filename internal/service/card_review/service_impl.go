package card_review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/analytics"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/srs"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// Verify interface compliance at compile time
var _ CardReviewService = (*cardReviewServiceImpl)(nil)

// Config tunes the service.
type Config struct {
	MaxUpdateAttempts int
}

type cardReviewServiceImpl struct {
	cards      store.CardStore
	sessions   store.SessionStore
	candidates store.CandidateStore
	tx         store.Transactor
	srsService srs.Service
	recorder   analytics.Recorder
	cfg        Config
	now        func() time.Time
	logger     *slog.Logger
}

// NewCardReviewService creates a new CardReviewService implementation.
func NewCardReviewService(
	cards store.CardStore,
	sessions store.SessionStore,
	candidates store.CandidateStore,
	tx store.Transactor,
	srsService srs.Service,
	recorder analytics.Recorder,
	cfg Config,
	logger *slog.Logger,
) CardReviewService {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if candidates == nil {
		panic("candidates cannot be nil")
	}
	if tx == nil {
		panic("tx cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if recorder == nil {
		recorder = analytics.Noop{}
	}
	if cfg.MaxUpdateAttempts < 1 {
		cfg.MaxUpdateAttempts = DefaultMaxUpdateAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardReviewServiceImpl{
		cards:      cards,
		sessions:   sessions,
		candidates: candidates,
		tx:         tx,
		srsService: srsService,
		recorder:   recorder,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "card_review_service")),
	}
}

// Review implements CardReviewService.Review.
func (s *cardReviewServiceImpl) Review(
	ctx context.Context,
	ownerID, cardID uuid.UUID,
	event domain.ReviewEvent,
) (*domain.ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("owner_id", ownerID.String()),
		slog.String("card_id", cardID.String()))

	for attempt := 1; attempt <= s.cfg.MaxUpdateAttempts; attempt++ {
		card, err := s.cards.GetByID(ctx, cardID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, err
			}
			return nil, NewReviewError("failed to load card", err)
		}
		if card.OwnerID != ownerID {
			log.WarnContext(ctx, "review of card owned by someone else",
				slog.String("card_owner_id", card.OwnerID.String()))
			return nil, store.ErrCardNotOwned
		}

		next, err := s.srsService.Schedule(card, event, s.now())
		if err != nil {
			return nil, NewReviewError("failed to schedule card", err)
		}

		err = s.cards.UpdateSchedule(ctx, next, card.Version)
		if errors.Is(err, store.ErrVersionConflict) {
			log.DebugContext(ctx, "card changed during review, retrying",
				slog.Int("attempt", attempt),
				slog.Int64("version", card.Version))
			continue
		}
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, err
			}
			return nil, NewReviewError("failed to save schedule", err)
		}

		s.track(ctx, domain.EventCardReviewed, ownerID, func(ev *domain.AnalyticsEvent) {
			ev.CardID = cardID
			ev.Properties = map[string]any{
				"correct":          event.Correct,
				"time_spent_ms":    event.TimeSpent.Milliseconds(),
				"interval":         next.Interval,
				"repetition_count": next.RepetitionCount,
			}
		})
		log.DebugContext(ctx, "card reviewed",
			slog.Bool("correct", event.Correct),
			slog.Int("interval", next.Interval),
			slog.Float64("ease_factor", next.EaseFactor),
			slog.Time("next_review_date", next.NextReviewDate))

		return &domain.ReviewResult{
			CardID:          next.ID,
			NextReviewDate:  next.NextReviewDate,
			Interval:        next.Interval,
			EaseFactor:      next.EaseFactor,
			RepetitionCount: next.RepetitionCount,
		}, nil
	}

	log.WarnContext(ctx, "giving up review after repeated version conflicts",
		slog.Int("attempts", s.cfg.MaxUpdateAttempts))
	return nil, ErrConcurrentUpdate
}

// ApproveCards implements CardReviewService.ApproveCards.
func (s *cardReviewServiceImpl) ApproveCards(
	ctx context.Context,
	ownerID, sessionID uuid.UUID,
	cardIDs []uuid.UUID,
) ([]*domain.ReviewableCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("owner_id", ownerID.String()),
		slog.String("session_id", sessionID.String()))

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewApproveError("failed to load session", err)
	}
	if session.OwnerID != ownerID {
		return nil, store.ErrSessionNotOwned
	}
	if session.Status != domain.SessionStatusGenerated {
		return nil, fmt.Errorf("%w: status is %s", ErrSessionNotApprovable, session.Status)
	}

	candidates, err := s.candidates.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, NewApproveError("failed to list candidates", err)
	}
	selected, err := selectCandidates(candidates, cardIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cards := make([]*domain.ReviewableCard, 0, len(selected))
	for _, c := range selected {
		card, err := domain.NewReviewableCard(ownerID, c, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
		cards = append(cards, card)
	}

	from := session.Status
	if err := session.Transition(domain.SessionStatusSaved, now, ""); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionNotApprovable, err)
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.cards.WithTx(tx).CreateMultiple(ctx, cards); err != nil {
			return err
		}
		return s.sessions.WithTx(tx).UpdateStatus(ctx, session, from)
	})
	if err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: %w", ErrSessionNotApprovable, err)
		}
		if errors.Is(err, store.ErrDuplicate) {
			return nil, err
		}
		return nil, NewApproveError("failed to save cards", err)
	}

	s.track(ctx, domain.EventCardsApproved, ownerID, func(ev *domain.AnalyticsEvent) {
		ev.SessionID = sessionID
		ev.Properties = map[string]any{
			"approved":   len(cards),
			"candidates": len(candidates),
		}
	})
	log.InfoContext(ctx, "cards approved", slog.Int("count", len(cards)))
	return cards, nil
}

// selectCandidates returns the candidates named by ids in the order given,
// or all candidates when ids is empty.
func selectCandidates(candidates []*domain.CandidateCard, ids []uuid.UUID) ([]*domain.CandidateCard, error) {
	if len(ids) == 0 {
		if len(candidates) == 0 {
			return nil, ErrNoCardsSelected
		}
		return candidates, nil
	}

	byID := make(map[uuid.UUID]*domain.CandidateCard, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]*domain.CandidateCard, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", store.ErrCandidateNotFound, id)
		}
		out = append(out, c)
	}
	return out, nil
}

// DueCards implements CardReviewService.DueCards.
func (s *cardReviewServiceImpl) DueCards(
	ctx context.Context,
	ownerID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.ReviewableCard, error) {
	cards, err := s.cards.Due(ctx, ownerID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due cards: %w", err)
	}
	return cards, nil
}

// DeleteCard implements CardReviewService.DeleteCard.
func (s *cardReviewServiceImpl) DeleteCard(ctx context.Context, ownerID, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.OwnerID != ownerID {
		return store.ErrCardNotOwned
	}
	if err := s.cards.Delete(ctx, cardID); err != nil {
		return err
	}

	log.InfoContext(ctx, "card deleted",
		slog.String("owner_id", ownerID.String()),
		slog.String("card_id", cardID.String()))
	return nil
}

func (s *cardReviewServiceImpl) track(ctx context.Context, typ domain.AnalyticsEventType, ownerID uuid.UUID, fill func(*domain.AnalyticsEvent)) {
	ev := analytics.NewEvent(typ, s.now())
	ev.OwnerID = ownerID
	fill(&ev)
	s.recorder.Track(ctx, ev)
}
