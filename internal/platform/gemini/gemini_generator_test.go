package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = cfg
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content, FinishReason: genai.FinishReasonStop}},
	}
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:     "test-key",
		ModelName:        "flash",
		ComplexModelName: "pro",
		VisionModelName:  "vision",
		Temperature:      0.4,
	}
}

func newTestGenerator(t *testing.T, fake *fakeModels) *GeminiGenerator {
	t.Helper()
	l, _ := logger.GetTestLogger(t)
	return newGenerator(fake, l, testLLMConfig())
}

func TestGenerate_ConcatenatesTextParts(t *testing.T) {
	t.Parallel()
	fake := &fakeModels{resp: textResponse("Photosynthesis converts ", "light into energy. ")}
	g := newTestGenerator(t, fake)

	out, err := g.Generate(context.Background(), generation.Request{
		Prompt:   "Explain photosynthesis",
		TaskType: generation.TaskTypeTopicExpansion,
	})

	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light into energy.", out)
	assert.Equal(t, "flash", fake.model)
	require.Len(t, fake.contents, 1)
	assert.Equal(t, "Explain photosynthesis", fake.contents[0].Parts[0].Text)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.4, float64(*fake.config.Temperature), 1e-6)
	assert.Empty(t, fake.config.ResponseMIMEType)
}

func TestGenerate_ModelSelectionAndOptions(t *testing.T) {
	t.Parallel()

	t.Run("vision request sends inline image", func(t *testing.T) {
		fake := &fakeModels{resp: textResponse("extracted text")}
		g := newTestGenerator(t, fake)

		_, err := g.Generate(context.Background(), generation.Request{
			Prompt:   "Extract the text",
			TaskType: generation.TaskTypeVisionExtract,
			Images:   []generation.Image{{Data: []byte{0x89, 0x50}, MIMEType: "image/png"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "vision", fake.model)
		require.Len(t, fake.contents[0].Parts, 2)
		assert.Equal(t, "image/png", fake.contents[0].Parts[1].InlineData.MIMEType)
	})

	t.Run("complex JSON request", func(t *testing.T) {
		fake := &fakeModels{resp: textResponse(`{"keyTopics":[]}`)}
		g := newTestGenerator(t, fake)

		_, err := g.Generate(context.Background(), generation.Request{
			Prompt:      "Analyze",
			Complexity:  generation.ComplexityComplex,
			JSON:        true,
			Temperature: generation.Float64(0.1),
		})

		require.NoError(t, err)
		assert.Equal(t, "pro", fake.model)
		assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
		assert.InDelta(t, 0.1, float64(*fake.config.Temperature), 1e-6)
	})
}

func TestGenerate_ResponseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want error
	}{
		{"nil response", nil, generation.ErrInvalidResponse},
		{"no candidates", &genai.GenerateContentResponse{}, generation.ErrInvalidResponse},
		{
			"safety finish reason",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			generation.ErrContentBlocked,
		},
		{
			"blocked prompt",
			&genai.GenerateContentResponse{PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: "SAFETY"}},
			generation.ErrContentBlocked,
		},
		{"whitespace output", textResponse("  ", "\n"), generation.ErrEmptyGeneration},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGenerator(t, &fakeModels{resp: tc.resp})
			_, err := g.Generate(context.Background(), generation.Request{Prompt: "p"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   error
		want error
	}{
		{errors.New("Error 429, Message: You exceeded your current quota"), generation.ErrQuotaExceeded},
		{errors.New("billing account disabled"), generation.ErrQuotaExceeded},
		{errors.New("Error 400, Status: INVALID_ARGUMENT"), generation.ErrInvalidConfig},
		{errors.New("API key not valid. Please pass a valid API key."), generation.ErrInvalidConfig},
		{errors.New("Error 503, Status: UNAVAILABLE"), generation.ErrTransientFailure},
		{context.DeadlineExceeded, generation.ErrTransientFailure},
	}

	for _, tc := range tests {
		got := classifyError(tc.in)
		assert.ErrorIs(t, got, tc.want, tc.in.Error())
	}
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t, &fakeModels{})
	_, err := g.Generate(context.Background(), generation.Request{})
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
}

func TestNewGeminiGenerator_Validation(t *testing.T) {
	t.Parallel()
	l, _ := logger.GetTestLogger(t)

	_, err := NewGeminiGenerator(context.Background(), nil, testLLMConfig())
	assert.Error(t, err)

	cfg := testLLMConfig()
	cfg.GeminiAPIKey = ""
	_, err = NewGeminiGenerator(context.Background(), l, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testLLMConfig()
	cfg.ModelName = ""
	_, err = NewGeminiGenerator(context.Background(), l, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestModelsFromConfig_FallsBackToStandard(t *testing.T) {
	t.Parallel()
	m := modelsFromConfig(config.LLMConfig{ModelName: "flash"})
	assert.Equal(t, "flash", m.forRequest(generation.Request{Complexity: generation.ComplexityComplex}))
	assert.Equal(t, "flash", m.forRequest(generation.Request{TaskType: generation.TaskTypeVisionExtract}))
}
