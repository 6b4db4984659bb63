package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analysisJSON = `{
  "keyTopics": ["cellular respiration", "mitochondria", "ATP"],
  "learningObjectives": ["Explain how cells release energy"],
  "estimatedDifficulty": "Advanced",
  "subjectArea": "Biology",
  "conceptWeights": {"cellular respiration": 1.0, "ATP": 1.7}
}`

func testNormalized() *Normalized {
	return &Normalized{
		Type:     domain.ContentTypeText,
		Text:     biologyText,
		Concepts: ExtractConcepts(biologyText, DefaultMinConceptLength, DefaultMaxConcepts),
		Hash:     cache.Fingerprint(biologyText),
	}
}

func TestAnalyzer_Success(t *testing.T) {
	t.Parallel()

	gen := mocks.NewMockGenerator(map[generation.TaskType]string{
		generation.TaskTypeAnalysis: "```json\n" + analysisJSON + "\n```",
	})
	a := NewAnalyzer(gen, nil, nil, nil)

	got := a.Analyze(context.Background(), testNormalized())
	assert.False(t, got.Fallback)
	assert.Equal(t, []string{"cellular respiration", "mitochondria", "ATP"}, got.KeyTopics)
	assert.Equal(t, domain.DifficultyAdvanced, got.EstimatedDifficulty)
	assert.Equal(t, "Biology", got.SubjectArea)
	assert.Equal(t, 1.0, got.ConceptWeights["ATP"])
	assert.False(t, got.AnalyzedAt.IsZero())

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].JSON)
	assert.Contains(t, reqs[0].Prompt, biologyText)
}

func TestAnalyzer_Fallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  *mocks.MockGenerator
	}{
		{"upstream error", mocks.NewMockGeneratorWithError(generation.ErrTransientFailure)},
		{"prose output", &mocks.MockGenerator{Output: "This text is about biology."}},
		{"two objects", &mocks.MockGenerator{Output: `{"keyTopics":["a"]} {"keyTopics":["b"]}`}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			norm := testNormalized()
			got := NewAnalyzer(tc.gen, nil, nil, nil).Analyze(context.Background(), norm)
			want := FallbackAnalysis(norm.Concepts, got.AnalyzedAt)
			assert.Equal(t, want, got)
		})
	}
}

func TestFallbackAnalysis(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	concepts := []Concept{
		{Term: "light", Count: 4},
		{Term: "photosynthesis", Count: 2},
		{Term: "chlorophyll", Count: 1},
		{Term: "glucose", Count: 1},
		{Term: "oxygen", Count: 1},
		{Term: "water", Count: 1},
	}
	got := FallbackAnalysis(concepts, now)

	assert.True(t, got.Fallback)
	assert.Equal(t, []string{"light", "photosynthesis", "chlorophyll", "glucose", "oxygen"}, got.KeyTopics)
	assert.Equal(t, []string{"Understand light", "Understand photosynthesis", "Understand chlorophyll"}, got.LearningObjectives)
	assert.Equal(t, domain.DifficultyIntermediate, got.EstimatedDifficulty)
	assert.Equal(t, domain.DefaultSubjectArea, got.SubjectArea)
	assert.Equal(t, 1.0, got.ConceptWeights["light"])
	assert.Equal(t, 0.5, got.ConceptWeights["photosynthesis"])
	assert.Equal(t, 0.25, got.ConceptWeights["water"])
	assert.Equal(t, now, got.AnalyzedAt)

	empty := FallbackAnalysis(nil, now)
	assert.Empty(t, empty.KeyTopics)
	assert.Empty(t, empty.LearningObjectives)
	assert.Empty(t, empty.ConceptWeights)
}

func TestAnalyzer_CacheHitSkipsModel(t *testing.T) {
	t.Parallel()

	store := cache.NewMemoryStore(cache.SystemClock)
	jc := cache.NewJSONCache(store, domain.CacheTypeAnalysis, time.Hour, nil)
	gen := mocks.NewMockGenerator(map[generation.TaskType]string{
		generation.TaskTypeAnalysis: analysisJSON,
	})
	a := NewAnalyzer(gen, nil, jc, nil)
	norm := testNormalized()

	first := a.Analyze(context.Background(), norm)
	second := a.Analyze(context.Background(), norm)

	assert.Equal(t, 1, gen.Calls(generation.TaskTypeAnalysis))
	assert.Equal(t, first.KeyTopics, second.KeyTopics)
	assert.Equal(t, first.SubjectArea, second.SubjectArea)
	assert.Equal(t, 1, store.Len())
}

func TestAnalyzer_FallbackIsNotCached(t *testing.T) {
	t.Parallel()

	store := cache.NewMemoryStore(cache.SystemClock)
	jc := cache.NewJSONCache(store, domain.CacheTypeAnalysis, time.Hour, nil)
	gen := mocks.NewMockGeneratorWithError(generation.ErrTransientFailure)

	got := NewAnalyzer(gen, nil, jc, nil).Analyze(context.Background(), testNormalized())
	assert.True(t, got.Fallback)
	assert.Zero(t, store.Len())
}
