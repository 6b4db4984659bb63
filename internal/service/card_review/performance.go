package card_review

import (
	"fmt"
	"strings"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// NoPerformanceData is the feedback for an empty result set.
const NoPerformanceData = "No data to analyze."

// Mean score thresholds for performance feedback.
const (
	weaknessThreshold = 0.5
	perfectScore      = 1.0
)

// QuizResult is one answered question.
type QuizResult struct {
	Topic     string `json:"topic"`
	IsCorrect bool   `json:"is_correct"`
}

// AnalyzePerformance summarizes quiz results per topic, in the order each
// topic first appears. A missing topic counts as General.
func AnalyzePerformance(results []QuizResult) string {
	if len(results) == 0 {
		return NoPerformanceData
	}

	type tally struct{ correct, total int }
	scores := make(map[string]*tally)
	var order []string
	for _, r := range results {
		topic := strings.TrimSpace(r.Topic)
		if topic == "" {
			topic = domain.DefaultSubjectArea
		}
		t, ok := scores[topic]
		if !ok {
			t = &tally{}
			scores[topic] = t
			order = append(order, topic)
		}
		t.total++
		if r.IsCorrect {
			t.correct++
		}
	}

	lines := make([]string, 0, len(order))
	for _, topic := range order {
		t := scores[topic]
		avg := float64(t.correct) / float64(t.total)
		switch {
		case avg < weaknessThreshold:
			lines = append(lines, fmt.Sprintf("Weakness detected in %s. Review the lecture notes.", topic))
		case avg == perfectScore:
			lines = append(lines, fmt.Sprintf("Perfect score in %s! Moving to advanced mode.", topic))
		default:
			lines = append(lines, fmt.Sprintf("Good progress in %s. Keep practicing.", topic))
		}
	}
	return strings.Join(lines, " ")
}
