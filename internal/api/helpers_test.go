package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/mocks"
	"github.com/phrazzld/scry-engine/internal/pipeline"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/service/auth"
	"github.com/phrazzld/scry-engine/internal/service/tutor"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

type mockGenerationService struct{ mock.Mock }

func (m *mockGenerationService) Generate(ctx context.Context, ownerID uuid.UUID, src domain.ContentSource, opts pipeline.Options) (*pipeline.Result, error) {
	args := m.Called(ctx, ownerID, src, opts)
	res, _ := args.Get(0).(*pipeline.Result)
	return res, args.Error(1)
}

func (m *mockGenerationService) GetSession(ctx context.Context, ownerID, sessionID uuid.UUID) (*domain.GenerationSession, []*domain.CandidateCard, error) {
	args := m.Called(ctx, ownerID, sessionID)
	s, _ := args.Get(0).(*domain.GenerationSession)
	c, _ := args.Get(1).([]*domain.CandidateCard)
	return s, c, args.Error(2)
}

type mockReviewService struct{ mock.Mock }

func (m *mockReviewService) Review(ctx context.Context, ownerID, cardID uuid.UUID, event domain.ReviewEvent) (*domain.ReviewResult, error) {
	args := m.Called(ctx, ownerID, cardID, event)
	res, _ := args.Get(0).(*domain.ReviewResult)
	return res, args.Error(1)
}

func (m *mockReviewService) ApproveCards(ctx context.Context, ownerID, sessionID uuid.UUID, cardIDs []uuid.UUID) ([]*domain.ReviewableCard, error) {
	args := m.Called(ctx, ownerID, sessionID, cardIDs)
	cards, _ := args.Get(0).([]*domain.ReviewableCard)
	return cards, args.Error(1)
}

func (m *mockReviewService) DueCards(ctx context.Context, ownerID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewableCard, error) {
	args := m.Called(ctx, ownerID, now, limit)
	cards, _ := args.Get(0).([]*domain.ReviewableCard)
	return cards, args.Error(1)
}

func (m *mockReviewService) DeleteCard(ctx context.Context, ownerID, cardID uuid.UUID) error {
	return m.Called(ctx, ownerID, cardID).Error(0)
}

type mockTutor struct{ mock.Mock }

func (m *mockTutor) Ask(ctx context.Context, ownerID uuid.UUID, question, subject string) (*tutor.Answer, error) {
	args := m.Called(ctx, ownerID, question, subject)
	a, _ := args.Get(0).(*tutor.Answer)
	return a, args.Error(1)
}

type mockQuiz struct{ mock.Mock }

func (m *mockQuiz) Sample(ctx context.Context, topic string, n int) ([]*domain.KnowledgeItem, error) {
	args := m.Called(ctx, topic, n)
	items, _ := args.Get(0).([]*domain.KnowledgeItem)
	return items, args.Error(1)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// testServer wires the router around mocks, authenticating testToken as ownerID.
type testServer struct {
	handler     http.Handler
	ownerID     uuid.UUID
	generations *mockGenerationService
	reviews     *mockReviewService
	tutor       *mockTutor
	quiz        *mockQuiz
	logs        *logger.TestLogBuffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log, buf := logger.GetTestLogger(t)
	ts := &testServer{
		ownerID:     uuid.New(),
		generations: &mockGenerationService{},
		reviews:     &mockReviewService{},
		tutor:       &mockTutor{},
		quiz:        &mockQuiz{},
		logs:        buf,
	}
	jwt := &mocks.MockJWTService{
		ValidateFn: func(_ context.Context, token string) (*auth.Claims, error) {
			if token != testToken {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{OwnerID: ts.ownerID}, nil
		},
	}
	ts.handler = NewRouter(RouterDeps{
		Logger:      log,
		JWT:         jwt,
		Generations: ts.generations,
		Reviews:     ts.reviews,
		Tutor:       ts.tutor,
		Quiz:        ts.quiz,
	})

	t.Cleanup(func() {
		ts.generations.AssertExpectations(t)
		ts.reviews.AssertExpectations(t)
		ts.tutor.AssertExpectations(t)
		ts.quiz.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func newTestLogger(t *testing.T) (*slog.Logger, *logger.TestLogBuffer) {
	t.Helper()
	return logger.GetTestLogger(t)
}

// authedRequest builds a request that already carries ownerID, bypassing
// the auth middleware.
func authedRequest(method, path string, ownerID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(shared.WithOwnerID(req.Context(), ownerID))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
