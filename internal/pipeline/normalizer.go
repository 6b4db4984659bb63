package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
)

// Normalization defaults.
const (
	DefaultMinContentLength = 50
	DefaultMaxConcepts      = 10
	DefaultMinConceptLength = 4
)

// WarningNoConcepts is recorded when no candidate concept was found.
const WarningNoConcepts = "no candidate concepts found in content"

// NormalizeParams bounds normalization and validation.
type NormalizeParams struct {
	MinContentLength int
	MaxConcepts      int
	MinConceptLength int
}

// DefaultNormalizeParams returns the default NormalizeParams.
func DefaultNormalizeParams() NormalizeParams {
	return NormalizeParams{
		MinContentLength: DefaultMinContentLength,
		MaxConcepts:      DefaultMaxConcepts,
		MinConceptLength: DefaultMinConceptLength,
	}
}

// Normalized is the text form of a ContentSource.
type Normalized struct {
	Type     domain.ContentType
	Text     string
	Concepts []Concept
	// Hash is the content fingerprint of Text.
	Hash     string
	Warnings []string
}

// Normalizer extracts plain text and candidate concepts from a ContentSource.
type Normalizer struct {
	gen     generation.Generator
	prompts *Prompts
	params  NormalizeParams
	logger  *slog.Logger
}

// NewNormalizer creates a Normalizer. gen is used for vision extraction and
// topic expansion.
func NewNormalizer(gen generation.Generator, prompts *Prompts, params NormalizeParams, l *slog.Logger) *Normalizer {
	if gen == nil {
		panic("generator cannot be nil")
	}
	if prompts == nil {
		prompts = MustLoadPrompts()
	}
	if l == nil {
		l = slog.Default()
	}
	return &Normalizer{
		gen:     gen,
		prompts: prompts,
		params:  params,
		logger:  l.With(slog.String("component", "normalizer")),
	}
}

// Normalize validates src and returns its normalized text. Validation errors
// are *domain.ValidationError; collaborator failures are returned as-is.
func (n *Normalizer) Normalize(ctx context.Context, src domain.ContentSource) (*Normalized, error) {
	log := logger.FromContextOrDefault(ctx, n.logger)

	if !src.Type.IsValid() {
		return nil, domain.NewValidationError(domain.CodeInvalidContentType,
			"unsupported content type %q", src.Type)
	}
	if strings.TrimSpace(string(src.Content)) == "" {
		return nil, domain.NewValidationError(domain.CodeMissingContent, "content is empty")
	}

	raw, err := n.extract(ctx, src)
	if err != nil {
		return nil, err
	}

	text := normalizeSpace(raw)
	if got := utf8.RuneCountInString(text); got < n.params.MinContentLength {
		return nil, domain.NewValidationError(domain.CodeContentTooShort,
			"content has %d characters, at least %d required", got, n.params.MinContentLength)
	}

	out := &Normalized{
		Type:     src.Type,
		Text:     text,
		Concepts: ExtractConcepts(text, n.params.MinConceptLength, n.params.MaxConcepts),
		Hash:     cache.Fingerprint(text),
	}
	if len(out.Concepts) == 0 {
		out.Warnings = append(out.Warnings, WarningNoConcepts)
		log.WarnContext(ctx, WarningNoConcepts, slog.String("content_type", string(src.Type)))
	}

	log.DebugContext(ctx, "content normalized",
		slog.String("content_type", string(src.Type)),
		slog.Int("length", utf8.RuneCountInString(text)),
		slog.Int("concepts", len(out.Concepts)))
	return out, nil
}

func (n *Normalizer) extract(ctx context.Context, src domain.ContentSource) (string, error) {
	switch {
	case src.IsVisionInput():
		prompt, err := n.prompts.Render(PromptVisionExtract, VisionPromptData{
			Filename: src.MetadataString(domain.MetadataFilename),
		})
		if err != nil {
			return "", err
		}
		text, err := n.gen.Generate(ctx, generation.Request{
			Prompt:   prompt,
			TaskType: generation.TaskTypeVisionExtract,
			Images: []generation.Image{{
				Data:     src.Content,
				MIMEType: src.MetadataString(domain.MetadataMIMEType),
			}},
		})
		if err != nil {
			return "", fmt.Errorf("vision extraction: %w", err)
		}
		return text, nil

	case src.Type == domain.ContentTypeTopic:
		prompt, err := n.prompts.Render(PromptTopicExpansion, TopicPromptData{
			Topic: normalizeSpace(string(src.Content)),
		})
		if err != nil {
			return "", err
		}
		text, err := n.gen.Generate(ctx, generation.Request{
			Prompt:     prompt,
			TaskType:   generation.TaskTypeTopicExpansion,
			Complexity: generation.ComplexityStandard,
		})
		if err != nil {
			return "", fmt.Errorf("topic expansion: %w", err)
		}
		return text, nil

	case strings.EqualFold(src.MetadataString(domain.MetadataFormat), "markdown"):
		return flattenMarkdown(src.Content), nil

	default:
		return string(src.Content), nil
	}
}
