package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
)

// Fallback analysis sizes.
const (
	fallbackTopicCount     = 5
	fallbackObjectiveCount = 3
)

// Analyzer asks the model for a structured ContentAnalysis and falls back to
// a heuristic one whenever that fails.
type Analyzer struct {
	gen     generation.Generator
	prompts *Prompts
	cache   *cache.JSONCache
	now     func() time.Time
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer. c may be nil to disable caching.
func NewAnalyzer(gen generation.Generator, prompts *Prompts, c *cache.JSONCache, l *slog.Logger) *Analyzer {
	if gen == nil {
		panic("generator cannot be nil")
	}
	if prompts == nil {
		prompts = MustLoadPrompts()
	}
	if l == nil {
		l = slog.Default()
	}
	return &Analyzer{
		gen:     gen,
		prompts: prompts,
		cache:   c,
		now:     time.Now,
		logger:  l.With(slog.String("component", "analyzer")),
	}
}

// AnalysisCacheKey is the cache key of the analysis of content with hash.
func AnalysisCacheKey(contentHash string) string {
	return cache.Fingerprint(domain.CacheTypeAnalysis, contentHash)
}

// Analyze never fails: any problem yields FallbackAnalysis.
func (a *Analyzer) Analyze(ctx context.Context, norm *Normalized) *domain.ContentAnalysis {
	log := logger.FromContextOrDefault(ctx, a.logger)

	if strings.TrimSpace(norm.Text) == "" {
		return FallbackAnalysis(norm.Concepts, a.now())
	}

	key := AnalysisCacheKey(norm.Hash)
	if a.cache != nil {
		var cached domain.ContentAnalysis
		hit, err := a.cache.Get(ctx, key, &cached)
		if err != nil {
			log.WarnContext(ctx, "analysis cache read failed", slog.String("error", err.Error()))
		}
		if hit {
			log.DebugContext(ctx, "analysis cache hit", slog.String("content_hash", norm.Hash))
			return &cached
		}
	}

	analysis, err := a.generate(ctx, norm)
	if err != nil {
		log.WarnContext(ctx, "content analysis failed, using fallback", slog.String("error", err.Error()))
		return FallbackAnalysis(norm.Concepts, a.now())
	}

	if a.cache != nil {
		if err := a.cache.Put(ctx, key, analysis); err != nil {
			log.WarnContext(ctx, "analysis cache write failed", slog.String("error", err.Error()))
		}
	}
	return analysis
}

func (a *Analyzer) generate(ctx context.Context, norm *Normalized) (*domain.ContentAnalysis, error) {
	prompt, err := a.prompts.Render(PromptAnalysis, AnalysisPromptData{
		Text:     norm.Text,
		Concepts: Terms(norm.Concepts),
	})
	if err != nil {
		return nil, err
	}

	raw, err := a.gen.Generate(ctx, generation.Request{
		Prompt:     prompt,
		TaskType:   generation.TaskTypeAnalysis,
		Complexity: generation.ComplexityStandard,
		JSON:       true,
	})
	if err != nil {
		return nil, err
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, err
	}
	if len(analysis.KeyTopics) == 0 {
		analysis.KeyTopics = topTerms(norm.Concepts, fallbackTopicCount)
	}
	analysis.AnalyzedAt = a.now().UTC()
	return analysis, nil
}

type analysisPayload struct {
	KeyTopics           []string           `json:"keyTopics"`
	LearningObjectives  []string           `json:"learningObjectives"`
	EstimatedDifficulty string             `json:"estimatedDifficulty"`
	SubjectArea         string             `json:"subjectArea"`
	ConceptWeights      map[string]float64 `json:"conceptWeights"`
}

func decodeAnalysis(body string) (analysisPayload, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	var p analysisPayload
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("%w: analysis is not a JSON object: %v", generation.ErrInvalidResponse, err)
	}
	if dec.More() {
		return p, fmt.Errorf("%w: trailing data after analysis object", generation.ErrInvalidResponse)
	}
	return p, nil
}

// parseAnalysis strips a code fence if present and decodes a single JSON object.
func parseAnalysis(raw string) (*domain.ContentAnalysis, error) {
	body := strings.TrimSpace(raw)
	if block, ok := firstFencedBlock([]byte(body)); ok {
		body = strings.TrimSpace(block)
	}

	p, err := decodeAnalysis(body)
	if err != nil {
		var retryErr error
		if p, retryErr = decodeAnalysis(trimFence(raw)); retryErr != nil {
			return nil, err
		}
	}

	weights := make(map[string]float64, len(p.ConceptWeights))
	for k, v := range p.ConceptWeights {
		weights[k] = domain.Clamp01(v)
	}
	subject := strings.TrimSpace(p.SubjectArea)
	if subject == "" {
		subject = domain.DefaultSubjectArea
	}

	return &domain.ContentAnalysis{
		KeyTopics:           nonEmpty(p.KeyTopics),
		LearningObjectives:  nonEmpty(p.LearningObjectives),
		EstimatedDifficulty: domain.ParseDifficulty(strings.ToLower(strings.TrimSpace(p.EstimatedDifficulty)), domain.DifficultyIntermediate),
		SubjectArea:         subject,
		ConceptWeights:      weights,
	}, nil
}

// FallbackAnalysis derives an analysis from concept frequencies alone.
func FallbackAnalysis(concepts []Concept, now time.Time) *domain.ContentAnalysis {
	topics := topTerms(concepts, fallbackTopicCount)

	objectives := make([]string, 0, fallbackObjectiveCount)
	for i := 0; i < len(topics) && i < fallbackObjectiveCount; i++ {
		objectives = append(objectives, "Understand "+topics[i])
	}

	weights := make(map[string]float64, len(concepts))
	maxCount := 0
	for _, c := range concepts {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	for _, c := range concepts {
		weights[c.Term] = float64(c.Count) / float64(maxCount)
	}

	return &domain.ContentAnalysis{
		KeyTopics:           topics,
		LearningObjectives:  objectives,
		EstimatedDifficulty: domain.DifficultyIntermediate,
		SubjectArea:         domain.DefaultSubjectArea,
		ConceptWeights:      weights,
		AnalyzedAt:          now.UTC(),
		Fallback:            true,
	}
}

func topTerms(concepts []Concept, n int) []string {
	if len(concepts) > n {
		concepts = concepts[:n]
	}
	return Terms(concepts)
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
