package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// ParseErrorKind tells apart the ways model output can fail to yield cards.
type ParseErrorKind string

const (
	// ParseErrorEmpty: the output was blank.
	ParseErrorEmpty ParseErrorKind = "empty"
	// ParseErrorMalformed: the output was not JSON of an accepted shape.
	ParseErrorMalformed ParseErrorKind = "malformed"
	// ParseErrorNoCards: the JSON held no entry with both question and answer.
	ParseErrorNoCards ParseErrorKind = "no_cards"
)

// ParseError is returned by ParseCards. It wraps domain.ErrUnparseableOutput.
type ParseError struct {
	Kind   ParseErrorKind
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (%s): %s", domain.ErrUnparseableOutput.Error(), e.Kind, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return domain.ErrUnparseableOutput
}

// RawCard is one card as the model wrote it.
type RawCard struct {
	Question    string
	Answer      string
	Difficulty  string
	Category    string
	Tags        []string
	Explanation string
	MemoryTip   string
}

// ParsedCards is the successful outcome of ParseCards.
type ParsedCards struct {
	Cards []RawCard
	// Skipped counts entries dropped for a missing question or answer.
	Skipped int
}

type rawCardJSON struct {
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	Difficulty   string     `json:"difficulty"`
	Category     string     `json:"category"`
	Tags         stringList `json:"tags"`
	Explanation  string     `json:"explanation"`
	MemoryTip    string     `json:"memory_tip"`
	MemoryTipAlt string     `json:"memoryTip"`
}

// stringList accepts either a JSON array of strings or one comma-separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = nonEmpty(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = nonEmpty(strings.Split(s, ","))
	return nil
}

// ParseCards extracts flashcards from model output. It accepts a top-level
// array or an object holding a "cards" or "flashcards" array, optionally in
// a markdown code fence.
func ParseCards(raw string) (ParsedCards, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return ParsedCards{}, &ParseError{Kind: ParseErrorEmpty, Reason: "output is blank"}
	}
	if block, ok := firstFencedBlock([]byte(body)); ok {
		body = strings.TrimSpace(block)
	}

	entries, err := decodeEntries(body)
	if err != nil {
		var retryErr error
		if entries, retryErr = decodeEntries(trimFence(raw)); retryErr != nil {
			return ParsedCards{}, &ParseError{Kind: ParseErrorMalformed, Reason: err.Error()}
		}
	}

	var out ParsedCards
	for _, e := range entries {
		q := strings.TrimSpace(e.Question)
		a := strings.TrimSpace(e.Answer)
		if q == "" || a == "" {
			out.Skipped++
			continue
		}
		tip := e.MemoryTip
		if tip == "" {
			tip = e.MemoryTipAlt
		}
		out.Cards = append(out.Cards, RawCard{
			Question:    q,
			Answer:      a,
			Difficulty:  strings.ToLower(strings.TrimSpace(e.Difficulty)),
			Category:    strings.TrimSpace(e.Category),
			Tags:        e.Tags,
			Explanation: strings.TrimSpace(e.Explanation),
			MemoryTip:   strings.TrimSpace(tip),
		})
	}

	if len(out.Cards) == 0 {
		return ParsedCards{}, &ParseError{
			Kind:   ParseErrorNoCards,
			Reason: fmt.Sprintf("%d entries, none with both question and answer", len(entries)),
		}
	}
	return out, nil
}

func decodeEntries(body string) ([]rawCardJSON, error) {
	var list []rawCardJSON
	arrErr := json.Unmarshal([]byte(body), &list)
	if arrErr == nil {
		return list, nil
	}

	var wrapped struct {
		Cards      []rawCardJSON `json:"cards"`
		Flashcards []rawCardJSON `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
		return nil, fmt.Errorf("not a JSON array of cards: %v", arrErr)
	}
	switch {
	case wrapped.Cards != nil:
		return wrapped.Cards, nil
	case wrapped.Flashcards != nil:
		return wrapped.Flashcards, nil
	default:
		return nil, fmt.Errorf("JSON object has no cards or flashcards array")
	}
}
