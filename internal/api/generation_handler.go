package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/pipeline"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/service/card_review"
)

// GenerationService runs the flashcard pipeline and reads its sessions.
type GenerationService interface {
	Generate(ctx context.Context, ownerID uuid.UUID, src domain.ContentSource, opts pipeline.Options) (*pipeline.Result, error)
	GetSession(ctx context.Context, ownerID, sessionID uuid.UUID) (*domain.GenerationSession, []*domain.CandidateCard, error)
}

var _ GenerationService = (*pipeline.Service)(nil)

// GenerationHandler serves /api/generations.
type GenerationHandler struct {
	generations GenerationService
	reviews     card_review.CardReviewService
	logger      *slog.Logger
}

// NewGenerationHandler creates a GenerationHandler.
func NewGenerationHandler(
	generations GenerationService,
	reviews card_review.CardReviewService,
	logger *slog.Logger,
) *GenerationHandler {
	if generations == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("generations cannot be nil for GenerationHandler")
	}
	if reviews == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviews cannot be nil for GenerationHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for GenerationHandler")
	}
	return &GenerationHandler{
		generations: generations,
		reviews:     reviews,
		logger:      logger.With(slog.String("component", "generation_handler")),
	}
}

// Generate handles POST /api/generations. It runs the pipeline
// synchronously and returns the candidate flashcards.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	var req GenerateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	src, err := req.ContentSource()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("generating flashcards",
		slog.String("content_type", string(src.Type)),
		slog.Int("content_bytes", len(src.Content)),
		slog.Int("count", req.Options.Count))

	result, err := h.generations.Generate(r.Context(), ownerID, src, req.Options)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate flashcards")
		return
	}

	w.Header().Set("Location", "/api/generations/"+result.SessionID.String())
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// GetSession handles GET /api/generations/{id}.
func (h *GenerationHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, sessionID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, cards, err := h.generations.GetSession(r.Context(), ownerID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load generation session")
		return
	}
	if cards == nil {
		cards = []*domain.CandidateCard{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{Session: session, Flashcards: cards})
}

// Approve handles POST /api/generations/{id}/approve. The selected
// candidates become reviewable cards and the session is marked saved.
func (h *GenerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, sessionID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ApproveRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	cards, err := h.reviews.ApproveCards(r.Context(), ownerID, sessionID, req.CardIDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to approve cards")
		return
	}

	log.Info("generation approved",
		slog.String("session_id", sessionID.String()),
		slog.Int("cards", len(cards)))
	shared.RespondWithJSON(w, r, http.StatusCreated, newCardsResponse(cards))
}
