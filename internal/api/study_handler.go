package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/service/card_review"
	"github.com/phrazzld/scry-engine/internal/service/tutor"
)

// Quiz size limits.
const (
	DefaultQuizSize = 5
	MaxQuizSize     = 50
)

// Tutor answers free-form study questions.
type Tutor interface {
	Ask(ctx context.Context, ownerID uuid.UUID, question, subject string) (*tutor.Answer, error)
}

// QuizSampler draws practice questions from the knowledge base.
type QuizSampler interface {
	Sample(ctx context.Context, topic string, n int) ([]*domain.KnowledgeItem, error)
}

var _ Tutor = (*tutor.Service)(nil)

// StudyHandler serves the tutor, quiz and progress endpoints.
type StudyHandler struct {
	tutor  Tutor
	quiz   QuizSampler
	logger *slog.Logger
}

// NewStudyHandler creates a StudyHandler. quiz may be nil when no
// knowledge base is configured; GET /api/quiz then returns 503.
func NewStudyHandler(t Tutor, quiz QuizSampler, logger *slog.Logger) *StudyHandler {
	if t == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tutor cannot be nil for StudyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}
	return &StudyHandler{
		tutor:  t,
		quiz:   quiz,
		logger: logger.With(slog.String("component", "study_handler")),
	}
}

// Ask handles POST /api/tutor. Model failures still answer 200 with the
// fallback flag set.
func (h *StudyHandler) Ask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	var req TutorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := h.tutor.Ask(r.Context(), ownerID, req.Question, req.Subject)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to answer question")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, answer)
}

// AnalyzeProgress handles POST /api/progress/analyze.
func (h *StudyHandler) AnalyzeProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if _, ok := requireOwner(w, r, log); !ok {
		return
	}

	var req ProgressRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ProgressResponse{
		Feedback: card_review.AnalyzePerformance(req.Results),
	})
}

// Quiz handles GET /api/quiz?topic=T&count=N.
func (h *StudyHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if _, ok := requireOwner(w, r, log); !ok {
		return
	}
	if h.quiz == nil {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Knowledge base is not configured")
		return
	}

	count, err := queryInt(r, "count", DefaultQuizSize, MaxQuizSize)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))

	items, err := h.quiz.Sample(r.Context(), topic, count)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build quiz")
		return
	}
	if items == nil {
		items = []*domain.KnowledgeItem{}
	}
	log.Debug("quiz sampled", slog.String("topic", topic), slog.Int("questions", len(items)))
	shared.RespondWithJSON(w, r, http.StatusOK, QuizResponse{Topic: topic, Questions: items})
}
