package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// QualityParams holds the heuristic quality constants. Lengths are in
// characters of the trimmed text.
type QualityParams struct {
	BaseScore               float64
	MinQuestionLength       int
	ShortQuestionPenalty    float64
	MaxQuestionLength       int
	LongQuestionPenalty     float64
	MinAnswerLength         int
	ShortAnswerPenalty      float64
	NonInterrogativePenalty float64
	InterrogativeWords      []string
}

// DefaultQualityParams returns the default quality heuristics.
func DefaultQualityParams() QualityParams {
	return QualityParams{
		BaseScore:               0.8,
		MinQuestionLength:       10,
		ShortQuestionPenalty:    0.2,
		MaxQuestionLength:       200,
		LongQuestionPenalty:     0.1,
		MinAnswerLength:         5,
		ShortAnswerPenalty:      0.3,
		NonInterrogativePenalty: 0.1,
		InterrogativeWords:      []string{"what", "how", "why"},
	}
}

// Score computes the quality score of a question/answer pair.
func (p QualityParams) Score(question, answer string) domain.QualityScore {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)

	clarity := p.BaseScore
	accuracy := p.BaseScore
	difficultyFit := p.BaseScore
	relevance := p.BaseScore

	qLen := utf8.RuneCountInString(question)
	if qLen < p.MinQuestionLength {
		clarity -= p.ShortQuestionPenalty
	}
	if qLen > p.MaxQuestionLength {
		clarity -= p.LongQuestionPenalty
	}
	if utf8.RuneCountInString(answer) < p.MinAnswerLength {
		accuracy -= p.ShortAnswerPenalty
	}
	if !strings.Contains(question, "?") && !p.hasInterrogative(question) {
		clarity -= p.NonInterrogativePenalty
	}

	score := domain.QualityScore{
		Clarity:       domain.Clamp01(clarity),
		Accuracy:      domain.Clamp01(accuracy),
		DifficultyFit: domain.Clamp01(difficultyFit),
		Relevance:     domain.Clamp01(relevance),
	}
	score.Overall = (score.Clarity + score.Accuracy + score.DifficultyFit + score.Relevance) / 4
	return score
}

func (p QualityParams) hasInterrogative(question string) bool {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for _, iw := range p.InterrogativeWords {
			if w == iw {
				return true
			}
		}
	}
	return false
}

// Assess scores card in place and scales its confidence by the overall score.
func (p QualityParams) Assess(card *domain.CandidateCard) {
	card.QualityScore = p.Score(card.Question, card.Answer)
	card.Confidence = domain.Clamp01(domain.Clamp01(card.Confidence) * card.QualityScore.Overall)
}

// AssessAll applies Assess to every card.
func (p QualityParams) AssessAll(cards []*domain.CandidateCard) {
	for _, c := range cards {
		p.Assess(c)
	}
}
