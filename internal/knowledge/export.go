package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
)

// exportNamespace derives stable item IDs from export record IDs, so a
// re-import of the same export inserts nothing new.
var exportNamespace = uuid.MustParse("6f1c2a58-93d4-4c0e-9a57-8e3b1f0d2c41")

// choiceLetters are the answer options an export record may carry.
var choiceLetters = []string{"A", "B", "C", "D", "E"}

// exportRecord is one row of the cleaned question-bank export.
type exportRecord struct {
	ID       json.RawMessage   `json:"id"`
	Prompt   *string           `json:"prompt"`
	Lecture  *string           `json:"lecture"`
	Solution *string           `json:"solution"`
	Subject  *string           `json:"subject"`
	Topic    *string           `json:"topic"`
	Choices  map[string]string `json:"choices"`
	Answer   json.RawMessage   `json:"answer"`
}

// DecodeExport reads a cleaned question-bank export: a JSON array of
// records with prompt, lecture, solution, subject, topic, choices and
// answer fields. Records without a prompt or a lecture are dropped; the
// second result counts them.
func DecodeExport(r io.Reader) ([]*domain.KnowledgeItem, int, error) {
	var records []exportRecord
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, 0, fmt.Errorf("decode knowledge export: %w", err)
	}

	items := make([]*domain.KnowledgeItem, 0, len(records))
	skipped := 0
	for i, rec := range records {
		question, lecture := deref(rec.Prompt), deref(rec.Lecture)
		if question == "" || lecture == "" {
			skipped++
			continue
		}

		key := rawScalar(rec.ID)
		if key == "" {
			key = "row-" + strconv.Itoa(i)
		}

		choices := keepChoices(rec.Choices)
		items = append(items, &domain.KnowledgeItem{
			ID:       uuid.NewSHA1(exportNamespace, []byte(key)),
			Question: question,
			Context:  lecture,
			Solution: deref(rec.Solution),
			Answer:   answerLetter(rawScalar(rec.Answer), choices),
			Subject:  deref(rec.Subject),
			Topic:    deref(rec.Topic),
			Choices:  choices,
		})
	}
	return items, skipped, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// rawScalar renders a JSON string or number as text. null and other
// shapes render as "".
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// answerLetter normalizes an answer to a choice letter. Numeric answers
// are zero-based choice indexes; anything else is kept verbatim.
func answerLetter(answer string, choices map[string]string) string {
	if idx, err := strconv.Atoi(answer); err == nil {
		if idx >= 0 && idx < len(choiceLetters) {
			return choiceLetters[idx]
		}
		return answer
	}
	if upper := strings.ToUpper(answer); len(upper) == 1 {
		if _, ok := choices[upper]; ok {
			return upper
		}
	}
	return answer
}

// keepChoices drops blank options and anything outside A-E.
func keepChoices(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		letter := strings.ToUpper(strings.TrimSpace(k))
		v := strings.TrimSpace(in[k])
		if v == "" || !isChoiceLetter(letter) {
			continue
		}
		out[letter] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isChoiceLetter(s string) bool {
	for _, l := range choiceLetters {
		if s == l {
			return true
		}
	}
	return false
}
