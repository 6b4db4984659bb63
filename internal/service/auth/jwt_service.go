package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")
	ErrWeakSecret       = errors.New("jwt secret must be at least 32 characters")
)

// JWTService issues and checks the bearer tokens that identify an owner.
// Every card, session and analytics event is scoped by the owner ID the
// token carries.
type JWTService interface {
	GenerateToken(ctx context.Context, ownerID uuid.UUID) (string, error)

	// ValidateToken returns ErrExpiredToken, ErrTokenNotYetValid or
	// ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the decoded token payload.
type Claims struct {
	OwnerID   uuid.UUID `json:"uid,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
