package domain

import (
	"errors"

	"github.com/google/uuid"
)

// CardSource records where a candidate card came from.
type CardSource string

// Card sources.
const (
	CardSourceCache     CardSource = "cache"
	CardSourceGenerated CardSource = "generated"
)

// Candidate card validation errors.
var (
	ErrCardQuestionEmpty = errors.New("card question cannot be empty")
	ErrCardAnswerEmpty   = errors.New("card answer cannot be empty")
)

// QualityScore holds the heuristic sub-scores of a candidate card.
type QualityScore struct {
	Clarity       float64 `json:"clarity"`
	Accuracy      float64 `json:"accuracy"`
	DifficultyFit float64 `json:"difficultyFit"`
	Relevance     float64 `json:"relevance"`
	Overall       float64 `json:"overall"`
}

// CandidateCard is a generated flashcard awaiting approval.
type CandidateCard struct {
	ID           uuid.UUID    `json:"id"`
	SessionID    uuid.UUID    `json:"sessionId"`
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	Difficulty   Difficulty   `json:"difficulty"`
	Subject      string       `json:"subject"`
	Concepts     []string     `json:"concepts"`
	Confidence   float64      `json:"confidence"`
	QualityScore QualityScore `json:"qualityScore"`
	Explanation  string       `json:"explanation,omitempty"`
	MemoryTip    string       `json:"memoryTip,omitempty"`
	Source       CardSource   `json:"source"`
}

// Validate checks the card has the content needed to be studied.
func (c *CandidateCard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrInvalidID
	}
	if c.Question == "" {
		return ErrCardQuestionEmpty
	}
	if c.Answer == "" {
		return ErrCardAnswerEmpty
	}
	return nil
}

// Clamp01 limits v to the closed interval [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
