package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used by the adapter.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements generation.Generator using the Gemini API.
type GeminiGenerator struct {
	logger      *slog.Logger
	client      contentGenerator
	models      models
	temperature float64
}

var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator backed by a genai client.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(client.Models, logger, cfg), nil
}

func newGenerator(client contentGenerator, l *slog.Logger, cfg config.LLMConfig) *GeminiGenerator {
	return &GeminiGenerator{
		logger:      l.With(slog.String("component", "gemini_generator")),
		client:      client,
		models:      modelsFromConfig(cfg),
		temperature: cfg.Temperature,
	}
}

// Generate implements generation.Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req generation.Request) (string, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if err := req.Validate(); err != nil {
		return "", err
	}

	model := g.models.forRequest(req)
	log.DebugContext(ctx, "calling Gemini API",
		"model", model,
		"task_type", req.TaskType,
		"prompt_length", len(req.Prompt),
		"images", len(req.Images))

	resp, err := g.client.GenerateContent(ctx, model, buildContents(req), g.buildConfig(req))
	if err != nil {
		classified := classifyError(err)
		log.ErrorContext(ctx, "Gemini API call failed",
			"model", model,
			"task_type", req.TaskType,
			"error", classified)
		return "", classified
	}

	text, err := extractText(resp)
	if err != nil {
		log.WarnContext(ctx, "unusable Gemini response",
			"model", model,
			"task_type", req.TaskType,
			"error", err)
		return "", err
	}

	log.DebugContext(ctx, "Gemini API call successful",
		"model", model,
		"output_length", len(text))
	return text, nil
}

func buildContents(req generation.Request) []*genai.Content {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	parts = append(parts, &genai.Part{Text: req.Prompt})
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIMEType},
		})
	}
	return []*genai.Content{{Role: "user", Parts: parts}}
}

func (g *GeminiGenerator) buildConfig(req generation.Request) *genai.GenerateContentConfig {
	temp := g.temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	t := float32(temp)

	cfg := &genai.GenerateContentConfig{Temperature: &t}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrEmptyGeneration)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	return generation.CheckOutput(sb.String())
}

// classifyError maps client errors onto generation sentinels. Anything not
// recognized as permanent is treated as transient.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "billing"),
		strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %v", generation.ErrQuotaExceeded, err)
	case strings.Contains(msg, "api key not valid"),
		strings.Contains(msg, "permission_denied"),
		strings.Contains(msg, "invalid_argument"):
		return fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	case strings.Contains(msg, "safety"):
		return fmt.Errorf("%w: %v", generation.ErrContentBlocked, err)
	default:
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
}
