package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/analytics"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/redact"
	"github.com/phrazzld/scry-engine/internal/store"
)

// Metadata describes how a Result was produced.
type Metadata struct {
	Strategy       Strategy `json:"strategy"`
	CachedCount    int      `json:"cachedCount"`
	GeneratedCount int      `json:"generatedCount"`
	SkippedCount   int      `json:"skippedCount"`
	ContentHash    string   `json:"contentHash"`
	Warnings       []string `json:"warnings,omitempty"`
	DurationMillis int64    `json:"durationMs"`
}

// Result is the outcome of a successful generation.
type Result struct {
	SessionID  uuid.UUID               `json:"sessionId"`
	Flashcards []*domain.CandidateCard `json:"flashcards"`
	Analysis   *domain.ContentAnalysis `json:"analysis"`
	Metadata   Metadata                `json:"metadata"`
}

// ServiceConfig holds the Service tunables.
type ServiceConfig struct {
	DefaultCount int
	MaxCount     int
	Quality      QualityParams
}

// DefaultServiceConfig returns the default ServiceConfig.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultCount: DefaultCount,
		MaxCount:     MaxCount,
		Quality:      DefaultQualityParams(),
	}
}

// Service runs the generation pipeline end to end and records it in the
// ledger.
type Service struct {
	normalizer   *Normalizer
	analyzer     *Analyzer
	orchestrator *Orchestrator
	ledger       Ledger
	recorder     analytics.Recorder
	cfg          ServiceConfig
	now          func() time.Time
	logger       *slog.Logger
}

// NewService creates a Service. A nil recorder disables analytics.
func NewService(
	normalizer *Normalizer,
	analyzer *Analyzer,
	orchestrator *Orchestrator,
	ledger Ledger,
	recorder analytics.Recorder,
	cfg ServiceConfig,
	l *slog.Logger,
) *Service {
	if normalizer == nil || analyzer == nil || orchestrator == nil {
		panic("pipeline stages cannot be nil")
	}
	if ledger == nil {
		panic("ledger cannot be nil")
	}
	if recorder == nil {
		recorder = analytics.Noop{}
	}
	if l == nil {
		l = slog.Default()
	}
	return &Service{
		normalizer:   normalizer,
		analyzer:     analyzer,
		orchestrator: orchestrator,
		ledger:       ledger,
		recorder:     recorder,
		cfg:          cfg,
		now:          time.Now,
		logger:       l.With(slog.String("component", "pipeline_service")),
	}
}

// Generate turns src into candidate cards for ownerID.
//
// A session is recorded before anything else so that rejected input is
// auditable; on any error it is marked failed before the error is returned.
func (s *Service) Generate(ctx context.Context, ownerID uuid.UUID, src domain.ContentSource, opts Options) (*Result, error) {
	start := s.now()

	session, err := domain.NewGenerationSession(ownerID, src.Type, start)
	if err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("session_id", session.ID.String()),
		slog.String("content_type", string(src.Type)))
	ctx = logger.WithLogger(ctx, log)

	if err := s.ledger.Begin(ctx, session); err != nil {
		log.ErrorContext(ctx, "failed to record session start", slog.String("error", redact.Error(err)))
	}
	s.track(ctx, domain.EventGenerationStarted, session, map[string]any{
		"content_type": string(src.Type),
	})

	result, err := s.run(ctx, session, src, opts, start)
	if err != nil {
		s.fail(ctx, session, err)
		return nil, err
	}

	if err := s.ledger.Complete(ctx, session, result.Flashcards); err != nil {
		log.ErrorContext(ctx, "failed to record generated cards", slog.String("error", redact.Error(err)))
	}
	s.track(ctx, domain.EventGenerationCompleted, session, map[string]any{
		"strategy":        string(result.Metadata.Strategy),
		"cached_count":    result.Metadata.CachedCount,
		"generated_count": result.Metadata.GeneratedCount,
		"duration_ms":     result.Metadata.DurationMillis,
	})
	log.InfoContext(ctx, "generation completed",
		slog.Int("cards", len(result.Flashcards)),
		slog.String("strategy", string(result.Metadata.Strategy)))
	return result, nil
}

func (s *Service) run(ctx context.Context, session *domain.GenerationSession, src domain.ContentSource, opts Options, start time.Time) (*Result, error) {
	opts = opts.WithDefaults(s.cfg.DefaultCount)
	if err := opts.Validate(s.cfg.MaxCount); err != nil {
		return nil, err
	}

	norm, err := s.normalizer.Normalize(ctx, src)
	if err != nil {
		return nil, upstream(err)
	}
	session.ContentHash = norm.Hash

	analysis := s.analyzer.Analyze(ctx, norm)

	outcome, err := s.orchestrator.Produce(ctx, norm, analysis, opts)
	if err != nil {
		return nil, err
	}

	for _, c := range outcome.Cards {
		c.SessionID = session.ID
	}
	s.cfg.Quality.AssessAll(outcome.Cards)

	return &Result{
		SessionID:  session.ID,
		Flashcards: outcome.Cards,
		Analysis:   analysis,
		Metadata: Metadata{
			Strategy:       outcome.Strategy,
			CachedCount:    outcome.CachedCount,
			GeneratedCount: outcome.GeneratedCount,
			SkippedCount:   outcome.Skipped,
			ContentHash:    norm.Hash,
			Warnings:       norm.Warnings,
			DurationMillis: s.now().Sub(start).Milliseconds(),
		},
	}, nil
}

func (s *Service) fail(ctx context.Context, session *domain.GenerationSession, cause error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.WarnContext(ctx, "generation failed", slog.String("error", redact.Error(cause)))

	if err := s.ledger.Fail(ctx, session, redact.Error(cause)); err != nil {
		log.ErrorContext(ctx, "failed to record session failure", slog.String("error", redact.Error(err)))
	}

	props := map[string]any{"error_kind": errorKind(cause)}
	s.track(ctx, domain.EventGenerationFailed, session, props)
}

func (s *Service) track(ctx context.Context, typ domain.AnalyticsEventType, session *domain.GenerationSession, props map[string]any) {
	ev := analytics.NewEvent(typ, s.now())
	ev.OwnerID = session.OwnerID
	ev.SessionID = session.ID
	ev.Properties = props
	s.recorder.Track(ctx, ev)
}

// upstream wraps collaborator failures that are not validation errors.
func upstream(err error) error {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUpstreamGeneration) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstreamGeneration, err)
}

func errorKind(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return string(ve.Code)
	case errors.Is(err, domain.ErrUnparseableOutput):
		return "unparseable_output"
	case errors.Is(err, domain.ErrUpstreamGeneration):
		return "upstream_generation"
	default:
		return "internal"
	}
}

// GetSession returns a recorded session and its candidates when ownerID
// owns it.
func (s *Service) GetSession(ctx context.Context, ownerID, sessionID uuid.UUID) (*domain.GenerationSession, []*domain.CandidateCard, error) {
	reader, ok := s.ledger.(SessionReader)
	if !ok {
		return nil, nil, fmt.Errorf("%w: session lookup not supported", store.ErrNotFound)
	}
	session, cards, err := reader.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.OwnerID != ownerID {
		return nil, nil, store.ErrSessionNotOwned
	}
	return session, cards, nil
}
