package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/generation"
)

// validateConfig checks the settings the adapter cannot run without.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		logger.ErrorContext(ctx, "missing Gemini API key")
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		logger.ErrorContext(ctx, "missing model name")
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f out of range", generation.ErrInvalidConfig, cfg.Temperature)
	}

	return nil
}

// models resolves the model used for each class of request.
type models struct {
	standard string
	complex  string
	vision   string
}

func modelsFromConfig(cfg config.LLMConfig) models {
	m := models{
		standard: cfg.ModelName,
		complex:  cfg.ComplexModelName,
		vision:   cfg.VisionModelName,
	}
	if m.complex == "" {
		m.complex = m.standard
	}
	if m.vision == "" {
		m.vision = m.standard
	}
	return m
}

func (m models) forRequest(req generation.Request) string {
	switch {
	case req.TaskType == generation.TaskTypeVisionExtract || len(req.Images) > 0:
		return m.vision
	case req.Complexity == generation.ComplexityComplex:
		return m.complex
	default:
		return m.standard
	}
}
