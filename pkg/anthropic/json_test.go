package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain object", `{"score": 7}`, `{"score": 7}`},
		{"code fence", "```json\n{\"score\": 7}\n```", `{"score": 7}`},
		{"bare fence", "```\n{\"score\": 7}\n```", `{"score": 7}`},
		{"surrounding prose", `Here is the result: {"score": 7}. Let me know!`, `{"score": 7}`},
		{"whitespace", "  \n {\"a\":1} \n", `{"a":1}`},
		{"no object", "no json here", "no json here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanJSON(tt.input))
		})
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Text(nil))

	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "first"},
		{Type: "text", Text: ""},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, "first\nsecond", Text(resp))
}

func TestEstimateCost(t *testing.T) {
	t.Parallel()

	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 18.0, u.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.Zero(t, u.EstimateCost("unknown-model"))
}
