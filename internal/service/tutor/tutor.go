// Package tutor answers free-form study questions, grounded in the
// knowledge base when a usable context exists.
package tutor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/analytics"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/knowledge"
	"github.com/phrazzld/scry-engine/internal/pipeline"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/redact"
)

// Apology is the answer given whenever the model cannot be reached.
const Apology = "I'm sorry, I couldn't come up with an answer right now. Please try again in a moment."

// DefaultTimeout bounds one tutor answer, lookup included.
const DefaultTimeout = 20 * time.Second

// ErrEmptyQuestion is returned when the question is blank.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// Answer is the tutor's reply.
type Answer struct {
	Text string `json:"answer"`
	// Fallback is set when Text is the fixed apology.
	Fallback bool `json:"fallback"`
	// Grounded is set when a knowledge context was included in the prompt.
	Grounded bool `json:"grounded"`
}

// Service answers questions.
type Service struct {
	gen       generation.Generator
	retriever knowledge.Retriever
	prompts   *pipeline.Prompts
	recorder  analytics.Recorder
	timeout   time.Duration
	logger    *slog.Logger
}

// NewService creates a tutor Service. retriever and recorder may be nil.
func NewService(
	gen generation.Generator,
	retriever knowledge.Retriever,
	prompts *pipeline.Prompts,
	recorder analytics.Recorder,
	timeout time.Duration,
	l *slog.Logger,
) *Service {
	if gen == nil {
		panic("generator cannot be nil")
	}
	if prompts == nil {
		prompts = pipeline.MustLoadPrompts()
	}
	if recorder == nil {
		recorder = analytics.Noop{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if l == nil {
		l = slog.Default()
	}
	return &Service{
		gen:       gen,
		retriever: retriever,
		prompts:   prompts,
		recorder:  recorder,
		timeout:   timeout,
		logger:    l.With(slog.String("component", "tutor")),
	}
}

// Ask answers question. Upstream failures never surface: the apology is
// returned with Fallback set instead. Only a blank question is an error.
func (s *Service) Ask(ctx context.Context, ownerID uuid.UUID, question, subject string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewValidationError(domain.CodeMissingContent, "%s", ErrEmptyQuestion.Error())
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data := pipeline.TutorPromptData{Question: question, Subject: strings.TrimSpace(subject)}
	if s.retriever != nil {
		snippet, err := s.retriever.RetrieveContext(ctx, question, data.Subject)
		if err != nil {
			log.WarnContext(ctx, "tutor context lookup failed", slog.String("error", redact.Error(err)))
		} else if snippet != nil {
			data.Context = snippet.Context
		}
	}

	prompt, err := s.prompts.Render(pipeline.PromptTutor, data)
	if err != nil {
		return s.fallback(ctx, ownerID, err), nil
	}

	text, err := s.gen.Generate(ctx, generation.Request{
		Prompt:     prompt,
		TaskType:   generation.TaskTypeConversation,
		Complexity: generation.ComplexitySimple,
	})
	if err != nil {
		return s.fallback(ctx, ownerID, err), nil
	}

	return &Answer{Text: strings.TrimSpace(text), Grounded: data.Context != ""}, nil
}

func (s *Service) fallback(ctx context.Context, ownerID uuid.UUID, cause error) *Answer {
	logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "tutor answer failed, apologizing",
		slog.String("error", redact.Error(cause)))

	ev := analytics.NewEvent(domain.EventTutorFallback, time.Now())
	ev.OwnerID = ownerID
	ev.Properties = map[string]any{"error": redact.Error(cause)}
	s.recorder.Track(context.WithoutCancel(ctx), ev)

	return &Answer{Text: Apology, Fallback: true}
}
