package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents where a generation session is in its lifecycle.
type SessionStatus string

// Possible session status values.
const (
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusGenerated  SessionStatus = "generated"
	SessionStatusSaved      SessionStatus = "saved"
	SessionStatusFailed     SessionStatus = "failed"
)

// Session validation errors.
var (
	ErrEmptySessionID      = errors.New("session ID cannot be empty")
	ErrEmptySessionOwnerID = errors.New("session owner ID cannot be empty")
	ErrInvalidSessionType  = errors.New("session content type is invalid")
	ErrInvalidStatus       = errors.New("invalid session status")
)

// IsValid reports whether s is a known status.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusProcessing, SessionStatusGenerated, SessionStatusSaved, SessionStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusSaved || s == SessionStatusFailed
}

// CanTransitionTo reports whether moving from s to next keeps the status monotonic.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusProcessing:
		return next == SessionStatusGenerated || next == SessionStatusFailed
	case SessionStatusGenerated:
		return next == SessionStatusSaved || next == SessionStatusFailed
	default:
		return false
	}
}

// GenerationSession records one run of the generation pipeline for an owner.
type GenerationSession struct {
	ID           uuid.UUID     `json:"id"`
	OwnerID      uuid.UUID     `json:"owner_id"`
	ContentType  ContentType   `json:"content_type"`
	ContentHash  string        `json:"content_hash,omitempty"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// NewGenerationSession creates a session in the processing state.
func NewGenerationSession(ownerID uuid.UUID, contentType ContentType, now time.Time) (*GenerationSession, error) {
	s := &GenerationSession{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ContentType: contentType,
		Status:      SessionStatusProcessing,
		CreatedAt:   now.UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the session's invariant fields.
// The content type is not checked here: a session for an unknown type is
// still recorded so the rejection is auditable.
func (s *GenerationSession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}
	if s.OwnerID == uuid.Nil {
		return ErrEmptySessionOwnerID
	}
	if !s.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Transition moves the session to next, stamping CompletedAt when the session
// leaves processing. Reverting or leaving a terminal status is rejected.
func (s *GenerationSession) Transition(next SessionStatus, now time.Time, errMsg string) error {
	if !next.IsValid() {
		return ErrInvalidStatus
	}
	if !s.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	s.Status = next
	if s.CompletedAt == nil {
		t := now.UTC()
		s.CompletedAt = &t
	}
	if next == SessionStatusFailed {
		s.ErrorMessage = errMsg
	}
	return nil
}
