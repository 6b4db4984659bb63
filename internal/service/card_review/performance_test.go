package card_review_test

import (
	"testing"

	"github.com/phrazzld/scry-engine/internal/service/card_review"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzePerformance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		results []card_review.QuizResult
		want    string
	}{
		{"no results", nil, "No data to analyze."},
		{
			name: "mixed topics keep first appearance order",
			results: []card_review.QuizResult{
				{Topic: "Physics", IsCorrect: false},
				{Topic: "Biology", IsCorrect: true},
				{Topic: "Biology", IsCorrect: true},
				{Topic: "Chemistry", IsCorrect: true},
				{Topic: "Chemistry", IsCorrect: false},
			},
			want: "Weakness detected in Physics. Review the lecture notes. " +
				"Perfect score in Biology! Moving to advanced mode. " +
				"Good progress in Chemistry. Keep practicing.",
		},
		{
			name:    "missing topic is General",
			results: []card_review.QuizResult{{IsCorrect: true}, {Topic: "  ", IsCorrect: false}, {IsCorrect: true}},
			want:    "Good progress in General. Keep practicing.",
		},
		{
			name:    "one in three is a weakness",
			results: []card_review.QuizResult{{Topic: "Math", IsCorrect: true}, {Topic: "Math"}, {Topic: "Math"}},
			want:    "Weakness detected in Math. Review the lecture notes.",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, card_review.AnalyzePerformance(tc.results))
		})
	}
}
