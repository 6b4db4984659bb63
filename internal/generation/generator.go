package generation

import (
	"context"
	"fmt"
	"strings"
)

// TaskType tells the adapter what the output is for, which influences model
// and output-format selection.
type TaskType string

// Task types used by the engine.
const (
	TaskTypeAnalysis       TaskType = "analysis"
	TaskTypeFlashcards     TaskType = "flashcards"
	TaskTypeTopicExpansion TaskType = "topic_expansion"
	TaskTypeVisionExtract  TaskType = "vision_extract"
	TaskTypeConversation   TaskType = "conversation"
)

// Complexity hints at how capable a model the task needs.
type Complexity string

// Complexity levels.
const (
	ComplexitySimple   Complexity = "simple"
	ComplexityStandard Complexity = "standard"
	ComplexityComplex  Complexity = "complex"
)

// Image is inline image data for vision tasks.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request describes a single generation call.
type Request struct {
	Prompt     string
	TaskType   TaskType
	Complexity Complexity
	Images     []Image
	// JSON asks the model to answer with a JSON document.
	JSON bool
	// Temperature overrides the adapter default when set.
	Temperature *float64
}

// Validate checks the request can be sent.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// Generator produces text for a request.
//
// Implementations must return ErrEmptyGeneration when the output is empty
// after trimming, and should wrap failures with the sentinel errors of this
// package so callers can tell transient from permanent failures.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// CheckOutput trims text and reports ErrEmptyGeneration when nothing is left.
func CheckOutput(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w", ErrEmptyGeneration)
	}
	return trimmed, nil
}

// Float64 returns a pointer to v, for Request.Temperature.
func Float64(v float64) *float64 {
	return &v
}
