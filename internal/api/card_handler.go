package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/service/card_review"
)

// Due card listing limits.
const (
	DefaultDueLimit = 20
	MaxDueLimit     = 100
)

// CardHandler serves /api/cards.
type CardHandler struct {
	reviews card_review.CardReviewService
	now     func() time.Time
	logger  *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(reviews card_review.CardReviewService, logger *slog.Logger) *CardHandler {
	if reviews == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviews cannot be nil for CardHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CardHandler")
	}
	return &CardHandler{
		reviews: reviews,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "card_handler")),
	}
}

// Review handles POST /api/cards/{id}/review.
func (h *CardHandler) Review(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, cardID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.reviews.Review(r.Context(), ownerID, cardID, req.Event())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}

	log.Debug("card reviewed",
		slog.String("card_id", cardID.String()),
		slog.Bool("correct", *req.Correct),
		slog.Int("interval", result.Interval))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// DueCards handles GET /api/cards/due?limit=N.
func (h *CardHandler) DueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", DefaultDueLimit, MaxDueLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.reviews.DueCards(r.Context(), ownerID, h.now(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due cards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newCardsResponse(cards))
}

// DeleteCard handles DELETE /api/cards/{id}.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, cardID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.reviews.DeleteCard(r.Context(), ownerID, cardID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete card")
		return
	}

	log.Info("card deleted", slog.String("card_id", cardID.String()))
	w.WriteHeader(http.StatusNoContent)
}
