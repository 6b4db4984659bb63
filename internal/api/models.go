package api

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/pipeline"
	"github.com/phrazzld/scry-engine/internal/service/card_review"
)

// GenerateRequest is the payload of POST /api/generations. Text and topic
// material travels in Content; image and PDF bytes travel base64-encoded
// in ContentBase64.
type GenerateRequest struct {
	ContentType   string           `json:"content_type"`
	Content       string           `json:"content,omitempty"`
	ContentBase64 string           `json:"content_base64,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
	Options       pipeline.Options `json:"options"`
}

// Validate checks that exactly one content field is set.
func (r *GenerateRequest) Validate() error {
	hasText := strings.TrimSpace(r.Content) != ""
	hasBytes := r.ContentBase64 != ""
	switch {
	case !hasText && !hasBytes:
		return domain.NewValidationError(domain.CodeMissingContent, "content or content_base64 is required")
	case hasText && hasBytes:
		return domain.NewValidationError(domain.CodeInvalidOptions, "content and content_base64 are mutually exclusive")
	}
	return nil
}

// ContentSource converts the request into pipeline input.
func (r *GenerateRequest) ContentSource() (domain.ContentSource, error) {
	src := domain.ContentSource{
		Type:     domain.ContentType(strings.ToLower(strings.TrimSpace(r.ContentType))),
		Metadata: r.Metadata,
	}
	if r.ContentBase64 == "" {
		src.Content = []byte(r.Content)
		return src, nil
	}
	raw, err := base64.StdEncoding.DecodeString(r.ContentBase64)
	if err != nil {
		return domain.ContentSource{}, domain.NewValidationError(domain.CodeMissingContent, "content_base64 is not valid base64")
	}
	src.Content = raw
	return src, nil
}

// SessionResponse is the body of GET /api/generations/{id}.
type SessionResponse struct {
	Session    *domain.GenerationSession `json:"session"`
	Flashcards []*domain.CandidateCard   `json:"flashcards"`
}

// ApproveRequest selects the candidates to keep. An empty list keeps all.
type ApproveRequest struct {
	CardIDs []uuid.UUID `json:"card_ids" validate:"omitempty,max=50"`
}

// CardsResponse lists reviewable cards.
type CardsResponse struct {
	Cards []*domain.ReviewableCard `json:"cards"`
	Count int                      `json:"count"`
}

func newCardsResponse(cards []*domain.ReviewableCard) CardsResponse {
	if cards == nil {
		cards = []*domain.ReviewableCard{}
	}
	return CardsResponse{Cards: cards, Count: len(cards)}
}

// ReviewRequest records one study event.
type ReviewRequest struct {
	Correct         *bool `json:"correct" validate:"required"`
	TimeSpentMillis int64 `json:"time_spent_ms" validate:"gte=0,lte=86400000"`
}

// Event converts the request into a domain review event.
func (r ReviewRequest) Event() domain.ReviewEvent {
	return domain.ReviewEvent{
		Correct:   r.Correct != nil && *r.Correct,
		TimeSpent: time.Duration(r.TimeSpentMillis) * time.Millisecond,
	}
}

// TutorRequest is the payload of POST /api/tutor.
type TutorRequest struct {
	Question string `json:"question" validate:"max=4000"`
	Subject  string `json:"subject" validate:"max=100"`
}

// ProgressRequest is the payload of POST /api/progress/analyze.
type ProgressRequest struct {
	Results []card_review.QuizResult `json:"results" validate:"max=1000"`
}

// ProgressResponse carries the feedback text for a quiz attempt.
type ProgressResponse struct {
	Feedback string `json:"feedback"`
}

// QuizResponse is the body of GET /api/quiz.
type QuizResponse struct {
	Topic     string                  `json:"topic,omitempty"`
	Questions []*domain.KnowledgeItem `json:"questions"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
