package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/mocks"
	"github.com/phrazzld/scry-engine/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	tests := []struct {
		name           string
		authHeader     string
		validateErr    error
		claims         *auth.Claims
		expectedStatus int
	}{
		{name: "valid token", authHeader: "Bearer valid-token", claims: &auth.Claims{OwnerID: ownerID}, expectedStatus: http.StatusOK},
		{name: "lowercase scheme", authHeader: "bearer valid-token", claims: &auth.Claims{OwnerID: ownerID}, expectedStatus: http.StatusOK},
		{name: "missing header", expectedStatus: http.StatusUnauthorized},
		{name: "no scheme", authHeader: "valid-token", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "empty token", authHeader: "Bearer ", expectedStatus: http.StatusUnauthorized},
		{name: "expired token", authHeader: "Bearer t", validateErr: auth.ErrExpiredToken, expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", authHeader: "Bearer t", validateErr: auth.ErrInvalidToken, expectedStatus: http.StatusUnauthorized},
		{name: "not yet valid", authHeader: "Bearer t", validateErr: auth.ErrTokenNotYetValid, expectedStatus: http.StatusUnauthorized},
		{name: "nil owner", authHeader: "Bearer t", claims: &auth.Claims{}, expectedStatus: http.StatusUnauthorized},
		{name: "unexpected failure", authHeader: "Bearer t", validateErr: errors.New("keystore down"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := NewAuthMiddleware(&mocks.MockJWTService{ValidateErr: tt.validateErr, Claims: tt.claims})

			var captured uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = GetOwnerID(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, ownerID, captured)
			} else {
				assert.Equal(t, uuid.Nil, captured)
			}
		})
	}
}

func TestAuthMiddleware_PassesTrimmedToken(t *testing.T) {
	t.Parallel()

	var seen string
	mw := NewAuthMiddleware(&mocks.MockJWTService{
		ValidateFn: func(_ context.Context, token string) (*auth.Claims, error) {
			seen = token
			return &auth.Claims{OwnerID: uuid.New()}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer   abc.def.ghi ")
	mw.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc.def.ghi", seen)
}

func TestNewAuthMiddleware_PanicsOnNil(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewAuthMiddleware(nil) })
}

func TestGetOwnerID(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := GetOwnerID(req)
	assert.False(t, ok)

	got, ok := GetOwnerID(req.WithContext(shared.WithOwnerID(req.Context(), ownerID)))
	require.True(t, ok)
	assert.Equal(t, ownerID, got)
}
