package card_review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
)

// DefaultMaxUpdateAttempts bounds the optimistic retry loop of Review.
const DefaultMaxUpdateAttempts = 5

// CardReviewService governs approved cards: approval of generated
// candidates, scheduling after each study event and removal.
type CardReviewService interface {
	// Review applies a study event to a card and persists the new schedule.
	//
	// The update is a conditional write on the card's version. When another
	// writer got there first the card is re-read and the event re-applied,
	// up to the configured number of attempts.
	//
	// Returns:
	//   - store.ErrCardNotFound when the card does not exist
	//   - store.ErrCardNotOwned when ownerID does not own it
	//   - ErrConcurrentUpdate when every attempt lost the race
	Review(ctx context.Context, ownerID, cardID uuid.UUID, event domain.ReviewEvent) (*domain.ReviewResult, error)

	// ApproveCards saves the chosen candidates of a generated session as
	// reviewable cards and marks the session saved. An empty cardIDs
	// approves every candidate.
	ApproveCards(ctx context.Context, ownerID, sessionID uuid.UUID, cardIDs []uuid.UUID) ([]*domain.ReviewableCard, error)

	// DueCards lists the owner's cards due at now, earliest first.
	DueCards(ctx context.Context, ownerID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewableCard, error)

	// DeleteCard removes one of the owner's cards.
	DeleteCard(ctx context.Context, ownerID, cardID uuid.UUID) error
}

// Common error types for CardReviewService
var (
	// ErrConcurrentUpdate is returned when a review kept losing the
	// optimistic concurrency race.
	ErrConcurrentUpdate = errors.New("card was updated concurrently, try again")

	// ErrSessionNotApprovable is returned when the session is not in the
	// generated state.
	ErrSessionNotApprovable = errors.New("generation session cannot be approved in its current state")

	// ErrNoCardsSelected is returned when a session has nothing to approve.
	ErrNoCardsSelected = errors.New("no cards selected for approval")
)

// ServiceError wraps errors from the card review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "review", "approve_cards")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewReviewError returns a new ServiceError for the review operation.
func NewReviewError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "review", Message: message, Err: err}
}

// NewApproveError returns a new ServiceError for the approve_cards operation.
func NewApproveError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "approve_cards", Message: message, Err: err}
}
