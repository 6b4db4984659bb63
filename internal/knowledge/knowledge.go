package knowledge

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Default usability thresholds.
const (
	DefaultMinConfidence    = 0.7
	DefaultMinContextLength = 50
	DefaultResultLimit      = 10
)

// Snippet is one piece of vetted context.
type Snippet struct {
	Context    string  `json:"context"`
	Topic      string  `json:"topic,omitempty"`
	Subject    string  `json:"subject,omitempty"`
	Question   string  `json:"question,omitempty"`
	Answer     string  `json:"answer,omitempty"`
	Solution   string  `json:"solution,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Query is a knowledge search.
type Query struct {
	Text    string
	Subject string
	Limit   int
}

// Source returns snippets ordered by descending relevance.
type Source interface {
	Search(ctx context.Context, q Query) ([]Snippet, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, q Query) ([]Snippet, error)

// Search implements Source.
func (f SourceFunc) Search(ctx context.Context, q Query) ([]Snippet, error) {
	return f(ctx, q)
}

// Thresholds decide whether a snippet is usable.
type Thresholds struct {
	MinConfidence    float64
	MinContextLength int
}

// DefaultThresholds returns the standard usability thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinConfidence:    DefaultMinConfidence,
		MinContextLength: DefaultMinContextLength,
	}
}

// Usable reports whether s passes both thresholds. Both comparisons are
// strict: a confidence of exactly MinConfidence is a miss.
func (t Thresholds) Usable(s Snippet) bool {
	return s.Confidence > t.MinConfidence &&
		utf8.RuneCountInString(strings.TrimSpace(s.Context)) > t.MinContextLength
}

// Partition splits snippets into usable and sub-threshold ones, keeping the
// received order in both.
func (t Thresholds) Partition(snippets []Snippet) (usable, rest []Snippet) {
	for _, s := range snippets {
		if t.Usable(s) {
			usable = append(usable, s)
		} else {
			rest = append(rest, s)
		}
	}
	return usable, rest
}

// NoSource is a Source that never finds anything.
type NoSource struct{}

// Search implements Source.
func (NoSource) Search(context.Context, Query) ([]Snippet, error) {
	return nil, nil
}
