package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClamp01(t *testing.T) {
	t.Parallel()
	cases := map[float64]float64{-0.4: 0, 0: 0, 0.35: 0.35, 1: 1, 1.7: 1}
	for in, want := range cases {
		if got := Clamp01(in); got != want {
			t.Errorf("Clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestNewReviewableCard(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	candidate := &CandidateCard{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		Question:  "What is photosynthesis?",
		Answer:    "Conversion of light energy into chemical energy",
		Subject:   "Biology",
	}

	card, err := NewReviewableCard(owner, candidate, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if card.EaseFactor != InitialEaseFactor || card.Interval != InitialInterval {
		t.Errorf("Unexpected initial schedule: ease %v interval %d", card.EaseFactor, card.Interval)
	}
	if card.RepetitionCount != 0 || card.Version != 1 {
		t.Errorf("Unexpected counters: reps %d version %d", card.RepetitionCount, card.Version)
	}
	if !card.NextReviewDate.Equal(now) || !card.IsDue(now) {
		t.Error("Expected a new card to be due at approval time")
	}

	candidate.Answer = ""
	if _, err := NewReviewableCard(owner, candidate, now); !errors.Is(err, ErrCardAnswerEmpty) {
		t.Errorf("Expected %v, got %v", ErrCardAnswerEmpty, err)
	}
}

func TestCachedContextEntryIsExpired(t *testing.T) {
	t.Parallel()
	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := &CachedContextEntry{ExpiresAt: expires}

	if e.IsExpired(expires.Add(-time.Second)) {
		t.Error("Expected entry to be live before expiry")
	}
	if !e.IsExpired(expires) {
		t.Error("Expected entry to be expired at expiresAt")
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := NewValidationError(CodeContentTooShort, "got %d characters", 30)

	if !errors.Is(err, ErrValidation) {
		t.Error("Expected ValidationError to match ErrValidation")
	}
	if !IsValidationCode(err, CodeContentTooShort) {
		t.Error("Expected code ContentTooShort")
	}
	if IsValidationCode(errors.New("other"), CodeContentTooShort) {
		t.Error("Expected plain error not to match")
	}
}
