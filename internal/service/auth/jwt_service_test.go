package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

func newTestService(t *testing.T, secret string, lifetime time.Duration, now func() time.Time) *HMACJWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:            secret,
		TokenLifetimeMinutes: int(lifetime / time.Minute),
	})
	require.NoError(t, err)
	return svc.WithTimeFunc(now)
}

func TestNewJWTService_WeakSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	ownerID := uuid.New()
	svc := newTestService(t, testSecret, lifetime, func() time.Time { return fixedTime })

	token, err := svc.GenerateToken(context.Background(), ownerID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, ownerID, claims.OwnerID)
	assert.Equal(t, ownerID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(lifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	ownerID := uuid.New()

	issue := func(t *testing.T, secret string, at time.Time) string {
		svc := newTestService(t, secret, lifetime, func() time.Time { return at })
		token, err := svc.GenerateToken(context.Background(), ownerID)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		now     time.Time
		wantErr error
	}{
		{
			name:  "valid token",
			token: func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			now:   fixedTime.Add(30 * time.Minute),
		},
		{
			name:    "expired token",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			now:     fixedTime.Add(lifetime + 5*time.Minute),
			wantErr: ErrExpiredToken,
		},
		{
			name:  "expired within clock skew",
			token: func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			now:   fixedTime.Add(lifetime + time.Minute),
		},
		{
			name:    "wrong secret",
			token:   func(t *testing.T) string { return issue(t, wrongSecret, fixedTime) },
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed",
			token:   func(*testing.T) string { return "not.a.jwt" },
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong signing method",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwtCustomClaims{
					OwnerID: ownerID,
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
					},
				})
				s, err := tok.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing owner",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
				})
				s, err := tok.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			token := tc.token(t)
			svc := newTestService(t, testSecret, lifetime, func() time.Time { return tc.now })
			claims, err := svc.ValidateToken(context.Background(), token)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ownerID, claims.OwnerID)
		})
	}
}
