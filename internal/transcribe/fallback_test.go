package transcribe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notestream/notestream/internal/model"
)

func TestFallback_Deterministic(t *testing.T) {
	input := "I need to review the budget. The weather is nice. We should follow up with Sarah tomorrow."
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := Fallback(input, now)
	second := Fallback(input, now)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.ActionItems, second.ActionItems)
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Sentiment, second.Sentiment)
}

func TestFallback_ActionItems(t *testing.T) {
	input := "I need to review the budget. The weather is nice. We should follow up with Sarah tomorrow."

	result := Fallback(input, time.Now())

	require.Equal(t, []string{
		"I need to review the budget",
		"We should follow up with Sarah tomorrow",
	}, result.ActionItems)
}

func TestFallback_ActionItemLimit(t *testing.T) {
	input := "I need to call Anna. I need to call Ben. I need to call Cara. " +
		"I need to call Dan. I need to call Eve. I need to call Frank."

	result := Fallback(input, time.Now())

	assert.Len(t, result.ActionItems, 5)
}

func TestFallback_Summary(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "two sentences joined",
			input: "First thought here. Second thought here. Third thought here.",
			want:  "First thought here. Second thought here.",
		},
		{
			name:  "single sentence",
			input: "Just one thought about the project!",
			want:  "Just one thought about the project.",
		},
		{
			name:  "no qualifying sentences",
			input: "ok. no. hm.",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Fallback(tt.input, time.Now())
			assert.Equal(t, tt.want, result.Summary)
		})
	}
}

func TestFallback_ShapeFullyPopulated(t *testing.T) {
	now := time.Now()

	for _, input := range []string{"", "hi", "A proper sentence about nothing in particular."} {
		result := Fallback(input, now)

		assert.NotEmpty(t, result.Title)
		assert.NotEmpty(t, result.Category)
		assert.NotEmpty(t, result.Sentiment)
		assert.Equal(t, model.FallbackModel, result.Model)
		assert.NotNil(t, result.ActionItems)
		assert.False(t, result.ProcessedAt.IsZero())
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "mixed terminators",
			input: "One thing. Another thing! A question? Done.",
			want:  []string{"One thing", "Another thing", "A question", "Done"},
		},
		{
			name:  "short fragments dropped",
			input: "Yes. ok. This sentence survives.",
			want:  []string{"This sentence survives"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.input))
		})
	}
}
