package scoring

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/odysseus/internal/model"
	"github.com/sells-group/odysseus/pkg/anthropic"
)

type fakeResearcher struct {
	mu      sync.Mutex
	queries [][]string
	err     error
}

func (f *fakeResearcher) Research(_ context.Context, queries []string) (string, []model.Source, error) {
	f.mu.Lock()
	f.queries = append(f.queries, queries)
	f.mu.Unlock()
	if f.err != nil {
		return "", nil, f.err
	}
	transcript := "transcript for " + queries[0]
	return transcript, []model.Source{{Name: "src", URL: "https://s.example/" + queries[0]}}, nil
}

// fakeLLM answers each scoring prompt by detecting which topic's schema it
// asks for. Responses can be overridden per topic.
type fakeLLM struct {
	mu        sync.Mutex
	overrides map[model.Topic]string
	errTopic  model.Topic
	calls     int
}

func (f *fakeLLM) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	prompt := req.Messages[0].Content
	for _, topic := range model.Topics {
		if !strings.Contains(prompt, fmt.Sprintf("`%s_score`", topic)) {
			continue
		}
		if topic == f.errTopic {
			return nil, eris.Errorf("llm unavailable for %s", topic)
		}
		reply, ok := f.overrides[topic]
		if !ok {
			reply = fmt.Sprintf(`{"%[1]s_score": 7, "%[1]s_reasoning": "solid %[1]s evidence"}`, topic)
		}
		return &anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: reply}},
		}, nil
	}
	return nil, eris.New("unrecognized prompt")
}

func TestScoreAllTopics(t *testing.T) {
	t.Parallel()

	res := &fakeResearcher{}
	llm := &fakeLLM{}
	s := NewScorer(res, llm, "claude-sonnet-4-5-20250929", 1024)

	dossier := model.Dossier{"organization": map[string]any{"name": "Acme Energy"}}
	results, err := s.Score(context.Background(), "Acme Energy", dossier)

	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, topic := range model.Topics {
		r, ok := results[topic]
		require.True(t, ok, "missing topic %s", topic)
		assert.Equal(t, 7, r.Analysis.Score)
		assert.NotEmpty(t, r.Analysis.Reasoning)
		assert.NotEmpty(t, r.Analysis.Sources)
		assert.NotEmpty(t, r.Transcript)
	}
	assert.Len(t, res.queries, 4)
}

func TestScoreQueriesIncludeCompanyName(t *testing.T) {
	t.Parallel()

	res := &fakeResearcher{}
	s := NewScorer(res, &fakeLLM{}, "claude-sonnet-4-5-20250929", 1024)

	_, err := s.Score(context.Background(), "Acme Energy", model.Dossier{})

	require.NoError(t, err)
	for _, qs := range res.queries {
		for _, q := range qs {
			assert.Contains(t, q, "'Acme Energy'")
		}
	}
}

func TestScoreMissingCompanyName(t *testing.T) {
	t.Parallel()

	res := &fakeResearcher{}
	s := NewScorer(res, &fakeLLM{}, "claude-sonnet-4-5-20250929", 1024)

	_, err := s.Score(context.Background(), "", model.Dossier{})
	require.Error(t, err)
	assert.Empty(t, res.queries)

	_, err = s.Score(context.Background(), "Unknown Company", model.Dossier{})
	require.Error(t, err)
	assert.Empty(t, res.queries)
}

func TestScoreAbortsOnLLMError(t *testing.T) {
	t.Parallel()

	s := NewScorer(&fakeResearcher{}, &fakeLLM{errTopic: model.TopicRussia}, "claude-sonnet-4-5-20250929", 1024)

	_, err := s.Score(context.Background(), "Acme Energy", model.Dossier{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "russia")
}

func TestScoreAbortsOnSchemaViolation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing score":     `{"industry_reasoning": "no score"}`,
		"score out of band": `{"industry_score": 14, "industry_reasoning": "r"}`,
		"fractional score":  `{"industry_score": 6.5, "industry_reasoning": "r"}`,
		"missing reasoning": `{"industry_score": 6}`,
		"not json":          `the industry score is six`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			llm := &fakeLLM{overrides: map[model.Topic]string{model.TopicIndustry: reply}}
			s := NewScorer(&fakeResearcher{}, llm, "claude-sonnet-4-5-20250929", 1024)

			_, err := s.Score(context.Background(), "Acme Energy", model.Dossier{})
			require.Error(t, err)
		})
	}
}

func TestScoreResearchFailureAborts(t *testing.T) {
	t.Parallel()

	s := NewScorer(&fakeResearcher{err: eris.New("proxy down")}, &fakeLLM{}, "claude-sonnet-4-5-20250929", 1024)

	_, err := s.Score(context.Background(), "Acme Energy", model.Dossier{})
	require.Error(t, err)
}

func TestTopicSpecsCanonical(t *testing.T) {
	t.Parallel()

	specs := TopicSpecs()
	require.Len(t, specs, 4)
	for i, topic := range model.Topics {
		assert.Equal(t, topic, specs[i].Key)
		assert.NotEmpty(t, specs[i].Queries)
		assert.Contains(t, specs[i].Prompt, fmt.Sprintf("`%s_score`", topic))
	}
}

func TestRenderPromptSizeIncludesDossier(t *testing.T) {
	t.Parallel()

	specs := TopicSpecs()
	sizeSpec := specs[len(specs)-1]
	require.Equal(t, model.TopicSize, sizeSpec.Key)

	prompt := sizeSpec.RenderPrompt("Acme", "some transcript", `{"name":"Acme"}`)
	assert.Contains(t, prompt, `**Dossier:** {"name":"Acme"}`)

	geoPrompt := specs[0].RenderPrompt("Acme", "some transcript", `{"name":"Acme"}`)
	assert.NotContains(t, geoPrompt, "**Dossier:**")
}
