package tutor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/knowledge"
	"github.com/phrazzld/scry-engine/internal/mocks"
	"github.com/phrazzld/scry-engine/internal/service/tutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lecture = knowledge.Snippet{
	Context:    "Mitochondria are organelles that release energy from glucose through cellular respiration.",
	Confidence: 0.92,
}

func TestAsk_GroundedAnswer(t *testing.T) {
	t.Parallel()

	gen := mocks.NewMockGenerator(map[generation.TaskType]string{
		generation.TaskTypeConversation: "  They make ATP.  ",
	})
	source := knowledge.SourceFunc(func(context.Context, knowledge.Query) ([]knowledge.Snippet, error) {
		return []knowledge.Snippet{lecture}, nil
	})
	svc := tutor.NewService(gen, knowledge.NewRetriever(source, knowledge.DefaultThresholds()), nil, nil, time.Second, nil)

	ans, err := svc.Ask(context.Background(), uuid.New(), "What do mitochondria do?", "Biology")
	require.NoError(t, err)
	assert.Equal(t, "They make ATP.", ans.Text)
	assert.False(t, ans.Fallback)
	assert.True(t, ans.Grounded)

	prompt := gen.Requests()[0].Prompt
	assert.Contains(t, prompt, lecture.Context)
	assert.Contains(t, prompt, "for Biology")
	assert.Contains(t, prompt, "What do mitochondria do?")
}

func TestAsk_FallbackOnUpstreamFailure(t *testing.T) {
	t.Parallel()

	rec := &mocks.MockRecorder{}
	gen := mocks.NewMockGeneratorWithError(generation.ErrQuotaExceeded)
	svc := tutor.NewService(gen, nil, nil, rec, time.Second, nil)

	ans, err := svc.Ask(context.Background(), uuid.New(), "Why is the sky blue?", "")
	require.NoError(t, err)
	assert.True(t, ans.Fallback)
	assert.Equal(t, tutor.Apology, ans.Text)
	assert.Equal(t, []domain.AnalyticsEventType{domain.EventTutorFallback}, rec.Types())
}

func TestAsk_FallbackOnTimeout(t *testing.T) {
	t.Parallel()

	gen := &mocks.MockGenerator{
		GenerateFn: func(ctx context.Context, _ generation.Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	svc := tutor.NewService(gen, nil, nil, nil, 20*time.Millisecond, nil)

	ans, err := svc.Ask(context.Background(), uuid.New(), "Why is the sky blue?", "")
	require.NoError(t, err)
	assert.True(t, ans.Fallback)
}

func TestAsk_LookupFailureStillAnswers(t *testing.T) {
	t.Parallel()

	gen := &mocks.MockGenerator{Output: "Rayleigh scattering."}
	source := knowledge.SourceFunc(func(context.Context, knowledge.Query) ([]knowledge.Snippet, error) {
		return nil, errors.New("search unavailable")
	})
	svc := tutor.NewService(gen, knowledge.NewRetriever(source, knowledge.DefaultThresholds()), nil, nil, time.Second, nil)

	ans, err := svc.Ask(context.Background(), uuid.New(), "Why is the sky blue?", "Physics")
	require.NoError(t, err)
	assert.Equal(t, "Rayleigh scattering.", ans.Text)
	assert.False(t, ans.Grounded)
	assert.False(t, strings.Contains(gen.Requests()[0].Prompt, "reference material"))
}

func TestAsk_BlankQuestion(t *testing.T) {
	t.Parallel()

	gen := &mocks.MockGenerator{}
	svc := tutor.NewService(gen, nil, nil, nil, time.Second, nil)

	_, err := svc.Ask(context.Background(), uuid.New(), "   ", "")
	assert.True(t, domain.IsValidationCode(err, domain.CodeMissingContent))
	assert.Zero(t, gen.TotalCalls())
}
