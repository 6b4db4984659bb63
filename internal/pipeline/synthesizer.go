package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/knowledge"
)

// DefaultCardConfidence is the confidence of a generated card before quality
// adjustment.
const DefaultCardConfidence = 0.8

const defaultConceptCount = 3

// Synthesize turns parsed model output into candidate cards, filling gaps
// from the analysis.
func Synthesize(parsed ParsedCards, analysis *domain.ContentAnalysis) []*domain.CandidateCard {
	cards := make([]*domain.CandidateCard, 0, len(parsed.Cards))
	for _, rc := range parsed.Cards {
		subject := rc.Category
		if subject == "" {
			subject = analysis.SubjectArea
		}
		concepts := rc.Tags
		if len(concepts) == 0 {
			concepts = defaultConcepts(analysis)
		}
		cards = append(cards, &domain.CandidateCard{
			ID:          uuid.New(),
			Question:    rc.Question,
			Answer:      rc.Answer,
			Difficulty:  domain.ParseDifficulty(rc.Difficulty, analysis.EstimatedDifficulty),
			Subject:     subject,
			Concepts:    concepts,
			Confidence:  DefaultCardConfidence,
			Explanation: rc.Explanation,
			MemoryTip:   rc.MemoryTip,
			Source:      domain.CardSourceGenerated,
		})
	}
	return cards
}

// CardFromSnippet builds a candidate card from a knowledge base hit. The
// snippet's confidence becomes the card's prior confidence.
func CardFromSnippet(sn knowledge.Snippet, analysis *domain.ContentAnalysis) *domain.CandidateCard {
	topic := strings.TrimSpace(sn.Topic)

	question := strings.TrimSpace(sn.Question)
	if question == "" {
		about := topic
		if about == "" {
			about = analysis.SubjectArea
		}
		question = fmt.Sprintf("What is important to know about %s?", about)
	}

	explanation := strings.TrimSpace(sn.Solution)
	answer := strings.TrimSpace(sn.Answer)
	if answer == "" {
		answer = explanation
	}
	if answer == "" {
		answer = strings.TrimSpace(sn.Context)
	}
	if answer == explanation {
		explanation = ""
	}

	subject := strings.TrimSpace(sn.Subject)
	if subject == "" {
		subject = analysis.SubjectArea
	}

	concepts := defaultConcepts(analysis)
	if topic != "" {
		concepts = []string{topic}
	}

	return &domain.CandidateCard{
		ID:          uuid.New(),
		Question:    question,
		Answer:      answer,
		Difficulty:  analysis.EstimatedDifficulty,
		Subject:     subject,
		Concepts:    concepts,
		Confidence:  domain.Clamp01(sn.Confidence),
		Explanation: explanation,
		Source:      domain.CardSourceCache,
	}
}

func defaultConcepts(analysis *domain.ContentAnalysis) []string {
	n := defaultConceptCount
	if len(analysis.KeyTopics) < n {
		n = len(analysis.KeyTopics)
	}
	return append([]string(nil), analysis.KeyTopics[:n]...)
}
