package pipeline

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Concept is a candidate concept and how often it occurs in the text.
type Concept struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// ExtractConcepts lower-cases text, splits it on anything that is not a
// letter or digit, keeps tokens of at least minLen runes and returns the
// max most frequent. Ties keep first-appearance order.
func ExtractConcepts(text string, minLen, max int) []Concept {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	counts := make(map[string]int)
	var order []string
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < minLen {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	concepts := make([]Concept, len(order))
	for i, term := range order {
		concepts[i] = Concept{Term: term, Count: counts[term]}
	}
	sort.SliceStable(concepts, func(i, j int) bool {
		return concepts[i].Count > concepts[j].Count
	})

	if max > 0 && len(concepts) > max {
		concepts = concepts[:max]
	}
	return concepts
}

// Terms returns the concept terms in rank order.
func Terms(concepts []Concept) []string {
	terms := make([]string, len(concepts))
	for i, c := range concepts {
		terms[i] = c.Term
	}
	return terms
}
