package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/mocks"
	"github.com/stretchr/testify/assert"
)

func TestRouter_RequiresAuthentication(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodPost, "/api/generations"},
		{http.MethodGet, "/api/generations/" + uuid.NewString()},
		{http.MethodPost, "/api/generations/" + uuid.NewString() + "/approve"},
		{http.MethodPost, "/api/cards/" + uuid.NewString() + "/review"},
		{http.MethodGet, "/api/cards/due"},
		{http.MethodDelete, "/api/cards/" + uuid.NewString()},
		{http.MethodPost, "/api/tutor"},
		{http.MethodPost, "/api/progress/analyze"},
		{http.MethodGet, "/api/quiz"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			req := httptest.NewRequest(p.method, p.path, nil)
			req.Header.Set("Authorization", "Bearer forged")
			rec = httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_ErrorResponsesCarryTraceID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/generations/nope", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decodeBody[map[string]string](t, rec)["trace_id"])
}

func TestHealth(t *testing.T) {
	log, _ := newTestLogger(t)
	base := RouterDeps{
		Logger:      log,
		JWT:         &mocks.MockJWTService{},
		Generations: &mockGenerationService{},
		Reviews:     &mockReviewService{},
		Tutor:       &mockTutor{},
	}

	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantBody   string
	}{
		{name: "no database", wantStatus: http.StatusOK, wantBody: `{"status":"ok"}`},
		{
			name:       "database up",
			db:         pingerFunc(func(context.Context) error { return nil }),
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok","database":"ok"}`,
		},
		{
			name:       "database down",
			db:         pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"degraded","database":"unreachable"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := base
			deps.DB = tt.db
			rec := httptest.NewRecorder()
			NewRouter(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
