package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewGenerationSession(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s, err := NewGenerationSession(owner, ContentTypeText, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.Status != SessionStatusProcessing {
		t.Errorf("Expected status %s, got %s", SessionStatusProcessing, s.Status)
	}
	if s.CompletedAt != nil {
		t.Error("Expected nil CompletedAt for a new session")
	}

	if _, err := NewGenerationSession(uuid.Nil, ContentTypeText, now); err != ErrEmptySessionOwnerID {
		t.Errorf("Expected %v, got %v", ErrEmptySessionOwnerID, err)
	}
}

func TestSessionStatusTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from SessionStatus
		to   SessionStatus
		ok   bool
	}{
		{SessionStatusProcessing, SessionStatusGenerated, true},
		{SessionStatusProcessing, SessionStatusFailed, true},
		{SessionStatusProcessing, SessionStatusSaved, false},
		{SessionStatusGenerated, SessionStatusSaved, true},
		{SessionStatusGenerated, SessionStatusFailed, true},
		{SessionStatusGenerated, SessionStatusProcessing, false},
		{SessionStatusSaved, SessionStatusFailed, false},
		{SessionStatusFailed, SessionStatusProcessing, false},
		{SessionStatusFailed, SessionStatusGenerated, false},
	}

	for _, tc := range tests {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestGenerationSessionTransition(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s, err := NewGenerationSession(uuid.New(), ContentTypeTopic, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Transition(SessionStatusFailed, now, "content too short"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ErrorMessage != "content too short" {
		t.Errorf("Expected error message to be retained, got %q", s.ErrorMessage)
	}
	if s.CompletedAt == nil {
		t.Error("Expected CompletedAt to be set")
	}

	err = s.Transition(SessionStatusGenerated, now, "")
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("Expected %v, got %v", ErrInvalidStatusTransition, err)
	}
	if s.Status != SessionStatusFailed {
		t.Errorf("Expected status to stay failed, got %s", s.Status)
	}
}
