package domain

import "time"

// Difficulty is the estimated level of a piece of content or a card.
type Difficulty string

// Difficulty levels.
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// DefaultSubjectArea is used when no subject can be determined.
const DefaultSubjectArea = "General"

// IsValid reports whether d is a known difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// ParseDifficulty returns d when it is valid and fallback otherwise.
func ParseDifficulty(s string, fallback Difficulty) Difficulty {
	d := Difficulty(s)
	if d.IsValid() {
		return d
	}
	return fallback
}

// ContentAnalysis is the structured summary of normalized content.
type ContentAnalysis struct {
	KeyTopics           []string           `json:"keyTopics"`
	LearningObjectives  []string           `json:"learningObjectives"`
	EstimatedDifficulty Difficulty         `json:"estimatedDifficulty"`
	SubjectArea         string             `json:"subjectArea"`
	ConceptWeights      map[string]float64 `json:"conceptWeights"`
	AnalyzedAt          time.Time          `json:"analyzedAt"`
	// Fallback is set when the analysis was derived heuristically instead of
	// by the model.
	Fallback bool `json:"fallback,omitempty"`
}
