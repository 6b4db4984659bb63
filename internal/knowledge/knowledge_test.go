package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longContext = strings.Repeat("Mitochondria produce ATP through cellular respiration. ", 2)

func TestThresholdsUsable(t *testing.T) {
	t.Parallel()
	th := DefaultThresholds()

	tests := []struct {
		name    string
		snippet Snippet
		usable  bool
	}{
		{"confident and long", Snippet{Context: longContext, Confidence: 0.9}, true},
		{"confidence below threshold", Snippet{Context: longContext, Confidence: 0.65}, false},
		{"confidence exactly at threshold", Snippet{Context: longContext, Confidence: 0.7}, false},
		{"context exactly fifty characters", Snippet{Context: strings.Repeat("a", 50), Confidence: 0.95}, false},
		{"context fifty one characters", Snippet{Context: strings.Repeat("a", 51), Confidence: 0.95}, true},
		{"whitespace does not count", Snippet{Context: "  " + strings.Repeat("a", 50) + "   ", Confidence: 0.95}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.usable, th.Usable(tc.snippet))
		})
	}
}

func TestThresholdsPartitionKeepsOrder(t *testing.T) {
	t.Parallel()
	snippets := []Snippet{
		{Topic: "a", Context: longContext, Confidence: 0.9},
		{Topic: "b", Context: "short", Confidence: 0.9},
		{Topic: "c", Context: longContext, Confidence: 0.8},
		{Topic: "d", Context: longContext, Confidence: 0.5},
	}

	usable, rest := DefaultThresholds().Partition(snippets)

	require.Len(t, usable, 2)
	assert.Equal(t, "a", usable[0].Topic)
	assert.Equal(t, "c", usable[1].Topic)
	require.Len(t, rest, 2)
	assert.Equal(t, "b", rest[0].Topic)
	assert.Equal(t, "d", rest[1].Topic)
}

func TestSourceRetriever(t *testing.T) {
	t.Parallel()

	t.Run("returns first usable snippet", func(t *testing.T) {
		src := SourceFunc(func(_ context.Context, q Query) ([]Snippet, error) {
			assert.Equal(t, "cell energy", q.Text)
			assert.Equal(t, "Biology", q.Subject)
			return []Snippet{
				{Topic: "weak", Context: longContext, Confidence: 0.6},
				{Topic: "strong", Context: longContext, Confidence: 0.92},
			}, nil
		})

		got, err := NewRetriever(src, DefaultThresholds()).RetrieveContext(context.Background(), "cell energy", "Biology")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "strong", got.Topic)
	})

	t.Run("low confidence is a miss", func(t *testing.T) {
		src := SourceFunc(func(context.Context, Query) ([]Snippet, error) {
			return []Snippet{{Context: longContext, Confidence: 0.65}}, nil
		})

		got, err := NewRetriever(src, DefaultThresholds()).RetrieveContext(context.Background(), "q", "")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("source error is returned", func(t *testing.T) {
		boom := errors.New("boom")
		src := SourceFunc(func(context.Context, Query) ([]Snippet, error) { return nil, boom })

		_, err := NewRetriever(src, DefaultThresholds()).RetrieveContext(context.Background(), "q", "")
		assert.ErrorIs(t, err, boom)
	})
}

func TestNoSource(t *testing.T) {
	t.Parallel()
	got, err := NoSource{}.Search(context.Background(), Query{Text: "anything"})
	assert.NoError(t, err)
	assert.Empty(t, got)
}
