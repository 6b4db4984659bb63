package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Initial scheduling state for a freshly approved card.
const (
	InitialEaseFactor = 2.5
	InitialInterval   = 1
)

// Reviewable card validation errors.
var (
	ErrEmptyCardOwnerID  = errors.New("card owner ID cannot be empty")
	ErrInvalidInterval   = errors.New("interval must be at least 1 day")
	ErrInvalidEaseFactor = errors.New("ease factor must be at least 1.3")
	ErrInvalidRepetition = errors.New("repetition count cannot be negative")
)

// ReviewableCard is an approved card governed by the scheduler.
// Version is incremented on every persisted update and is used for
// optimistic concurrency.
type ReviewableCard struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	SessionID       uuid.UUID  `json:"session_id"`
	Subject         string     `json:"subject"`
	Question        string     `json:"question"`
	Answer          string     `json:"answer"`
	EaseFactor      float64    `json:"ease_factor"`
	Interval        int        `json:"interval"`
	RepetitionCount int        `json:"repetition_count"`
	NextReviewDate  time.Time  `json:"next_review_date"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewReviewableCard creates the persisted form of an approved candidate.
// The card is due immediately.
func NewReviewableCard(ownerID uuid.UUID, candidate *CandidateCard, now time.Time) (*ReviewableCard, error) {
	if candidate == nil {
		return nil, ErrInvalidID
	}
	now = now.UTC()
	card := &ReviewableCard{
		ID:              candidate.ID,
		OwnerID:         ownerID,
		SessionID:       candidate.SessionID,
		Subject:         candidate.Subject,
		Question:        candidate.Question,
		Answer:          candidate.Answer,
		EaseFactor:      InitialEaseFactor,
		Interval:        InitialInterval,
		RepetitionCount: 0,
		NextReviewDate:  now,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

// Validate checks the scheduling invariants.
func (c *ReviewableCard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrInvalidID
	}
	if c.OwnerID == uuid.Nil {
		return ErrEmptyCardOwnerID
	}
	if c.Question == "" {
		return ErrCardQuestionEmpty
	}
	if c.Answer == "" {
		return ErrCardAnswerEmpty
	}
	if c.Interval < 1 {
		return ErrInvalidInterval
	}
	if c.EaseFactor < 1.3 {
		return ErrInvalidEaseFactor
	}
	if c.RepetitionCount < 0 {
		return ErrInvalidRepetition
	}
	return nil
}

// IsDue reports whether the card should be reviewed at now.
func (c *ReviewableCard) IsDue(now time.Time) bool {
	return !c.NextReviewDate.After(now)
}

// ReviewEvent is one study attempt against a card.
type ReviewEvent struct {
	Correct   bool          `json:"correct"`
	TimeSpent time.Duration `json:"time_spent"`
}

// ReviewResult is the scheduling outcome of a review.
type ReviewResult struct {
	CardID          uuid.UUID `json:"card_id"`
	NextReviewDate  time.Time `json:"next_review_date"`
	Interval        int       `json:"interval"`
	EaseFactor      float64   `json:"ease_factor"`
	RepetitionCount int       `json:"repetition_count"`
}
