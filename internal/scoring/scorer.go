package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/odysseus/internal/model"
	"github.com/sells-group/odysseus/pkg/anthropic"
)

// Researcher is the slice of the research aggregator the scorer needs.
type Researcher interface {
	Research(ctx context.Context, queries []string) (string, []model.Source, error)
}

// TopicResult pairs a topic's scored analysis with the transcript it was
// scored against. Transcripts feed the synthesis stage.
type TopicResult struct {
	Analysis   model.TopicAnalysis
	Transcript string
}

// Scorer runs per-topic research and rubric scoring.
type Scorer struct {
	researcher Researcher
	llm        anthropic.Client
	model      string
	maxTokens  int64
}

// NewScorer builds a Scorer.
func NewScorer(researcher Researcher, llm anthropic.Client, llmModel string, maxTokens int64) *Scorer {
	return &Scorer{
		researcher: researcher,
		llm:        llm,
		model:      llmModel,
		maxTokens:  maxTokens,
	}
}

// Score researches and scores all four topics concurrently. Any LLM failure
// or rubric-schema violation aborts the whole pass: a company with a partial
// score set is worse than one marked failed, so there is no topic-level
// retry or partial result.
func (s *Scorer) Score(ctx context.Context, companyName string, dossier model.Dossier) (map[model.Topic]TopicResult, error) {
	if companyName == "" || companyName == "Unknown Company" {
		return nil, eris.New("scoring: no valid company name to research")
	}

	dossierJSON := dossier.OrganizationJSON()
	results := make([]TopicResult, len(topicSpecs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(topicSpecs))
	for i, spec := range topicSpecs {
		g.Go(func() error {
			res, err := s.scoreTopic(gctx, spec, companyName, dossierJSON)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[model.Topic]TopicResult, len(topicSpecs))
	for i, spec := range topicSpecs {
		out[spec.Key] = results[i]
	}
	return out, nil
}

func (s *Scorer) scoreTopic(ctx context.Context, spec TopicSpec, companyName, dossierJSON string) (TopicResult, error) {
	transcript, sources, err := s.researcher.Research(ctx, spec.RenderQueries(companyName))
	if err != nil {
		return TopicResult{}, eris.Wrapf(err, "scoring: research topic %s", spec.Key)
	}

	resp, err := s.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: spec.RenderPrompt(companyName, transcript, dossierJSON),
		}},
	})
	if err != nil {
		return TopicResult{}, eris.Wrapf(err, "scoring: analyze topic %s", spec.Key)
	}
	resp.Usage.LogCost(s.model, fmt.Sprintf("score_%s", spec.Key))

	analysis, err := parseTopicAnalysis(spec.Key, anthropic.CleanJSON(anthropic.Text(resp)))
	if err != nil {
		return TopicResult{}, err
	}
	analysis.Sources = sources

	zap.L().Info("topic scored",
		zap.String("company", companyName),
		zap.String("topic", string(spec.Key)),
		zap.Int("score", analysis.Score),
	)
	return TopicResult{Analysis: analysis, Transcript: transcript}, nil
}

// parseTopicAnalysis validates the model's response against the per-topic
// schema: `<topic>_score` as an integer in [0,10] plus `<topic>_reasoning`.
func parseTopicAnalysis(topic model.Topic, raw string) (model.TopicAnalysis, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return model.TopicAnalysis{}, eris.Wrapf(err, "scoring: parse %s response", topic)
	}

	scoreVal, ok := fields[string(topic)+"_score"].(float64)
	if !ok {
		return model.TopicAnalysis{}, eris.Errorf("scoring: %s response missing %s_score", topic, topic)
	}
	score := int(scoreVal)
	if float64(score) != scoreVal || score < 0 || score > 10 {
		return model.TopicAnalysis{}, eris.Errorf("scoring: %s_score %v outside 0-10", topic, scoreVal)
	}

	reasoning, ok := fields[string(topic)+"_reasoning"].(string)
	if !ok || reasoning == "" {
		return model.TopicAnalysis{}, eris.Errorf("scoring: %s response missing %s_reasoning", topic, topic)
	}

	return model.TopicAnalysis{Score: score, Reasoning: reasoning}, nil
}
