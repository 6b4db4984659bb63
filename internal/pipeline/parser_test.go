package pipeline

import (
	"errors"
	"testing"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards(t *testing.T) {
	t.Parallel()

	t.Run("top-level array", func(t *testing.T) {
		t.Parallel()

		parsed, err := ParseCards(`[
			{"question":"What is ATP?","answer":"The energy currency of the cell","difficulty":"Beginner","category":"Biology","tags":["atp","energy"],"memory_tip":"ATP pays"},
			{"question":"Where is ATP made?","answer":"Mitochondria","memoryTip":"powerhouse"}
		]`)
		require.NoError(t, err)
		require.Len(t, parsed.Cards, 2)
		assert.Equal(t, 0, parsed.Skipped)

		first := parsed.Cards[0]
		assert.Equal(t, "What is ATP?", first.Question)
		assert.Equal(t, "beginner", first.Difficulty)
		assert.Equal(t, "Biology", first.Category)
		assert.Equal(t, []string{"atp", "energy"}, first.Tags)
		assert.Equal(t, "ATP pays", first.MemoryTip)
		assert.Equal(t, "powerhouse", parsed.Cards[1].MemoryTip)
	})

	t.Run("fenced object with cards key", func(t *testing.T) {
		t.Parallel()

		raw := "Here you go:\n\n```json\n{\"cards\": [{\"question\": \"Q1?\", \"answer\": \"A1\", \"tags\": \"one, two\"}]}\n```\nEnjoy."
		parsed, err := ParseCards(raw)
		require.NoError(t, err)
		require.Len(t, parsed.Cards, 1)
		assert.Equal(t, []string{"one", "two"}, parsed.Cards[0].Tags)
	})

	t.Run("flashcards key", func(t *testing.T) {
		t.Parallel()

		parsed, err := ParseCards(`{"flashcards":[{"question":"Q?","answer":"A"}]}`)
		require.NoError(t, err)
		assert.Len(t, parsed.Cards, 1)
	})

	t.Run("closing fence on the payload line", func(t *testing.T) {
		t.Parallel()

		parsed, err := ParseCards("```json\n[{\"question\":\"What is DNA?\",\"answer\":\"A molecule\"}]```")
		require.NoError(t, err)
		require.Len(t, parsed.Cards, 1)
		assert.Equal(t, "What is DNA?", parsed.Cards[0].Question)
	})

	t.Run("single-line fence", func(t *testing.T) {
		t.Parallel()

		parsed, err := ParseCards("```json [{\"question\":\"Q?\",\"answer\":\"A\"}] ```")
		require.NoError(t, err)
		assert.Len(t, parsed.Cards, 1)

		parsed, err = ParseCards("```[{\"question\":\"Q?\",\"answer\":\"A\"}]```")
		require.NoError(t, err)
		assert.Len(t, parsed.Cards, 1)
	})

	t.Run("entries without question or answer are skipped", func(t *testing.T) {
		t.Parallel()

		parsed, err := ParseCards(`[{"question":"Q?","answer":"A"},{"question":"","answer":"A"},{"question":"Q2?"}]`)
		require.NoError(t, err)
		assert.Len(t, parsed.Cards, 1)
		assert.Equal(t, 2, parsed.Skipped)
	})

	failures := []struct {
		name string
		raw  string
		kind ParseErrorKind
	}{
		{"blank", "  \n\t ", ParseErrorEmpty},
		{"prose", "I cannot help with that.", ParseErrorMalformed},
		{"object without cards", `{"items":[]}`, ParseErrorMalformed},
		{"truncated json", `[{"question":"Q?","answer":`, ParseErrorMalformed},
		{"no complete entries", `[{"question":"Q?"},{"answer":"A"}]`, ParseErrorNoCards},
		{"empty array", `[]`, ParseErrorNoCards},
	}
	for _, tc := range failures {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseCards(tc.raw)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.kind, perr.Kind)
			assert.ErrorIs(t, err, domain.ErrUnparseableOutput)
		})
	}
}

func TestParseAnalysis_FenceShapes(t *testing.T) {
	t.Parallel()

	payload := `{"keyTopics":["osmosis"],"subjectArea":"Biology","estimatedDifficulty":"Beginner"}`
	for name, raw := range map[string]string{
		"bare":                 payload,
		"newline fences":       "```json\n" + payload + "\n```",
		"closing fence inline": "```json\n" + payload + "```",
		"single line":          "```json " + payload + "```",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			analysis, err := parseAnalysis(raw)
			require.NoError(t, err)
			assert.Equal(t, []string{"osmosis"}, analysis.KeyTopics)
			assert.Equal(t, "Biology", analysis.SubjectArea)
		})
	}

	_, err := parseAnalysis("```json\n{\"keyTopics\": [```")
	assert.Error(t, err)
}

func TestTrimFence(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[1]", trimFence("```json\n[1]```"))
	assert.Equal(t, "[1]", trimFence("  ```JSON [1] ```  "))
	assert.Equal(t, "[1]", trimFence("[1]"))
}
