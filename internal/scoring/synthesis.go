package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/odysseus/internal/model"
	"github.com/sells-group/odysseus/pkg/anthropic"
)

// verdictTokens are the only admissible openings for investment_reasoning.
var verdictTokens = []string{"Yes", "No", "Depends"}

// Synthesizer produces the final holistic analysis and the unified score.
type Synthesizer struct {
	llm       anthropic.Client
	model     string
	maxTokens int64
	weights   model.Weights
}

// NewSynthesizer builds a Synthesizer.
func NewSynthesizer(llm anthropic.Client, llmModel string, maxTokens int64, weights model.Weights) *Synthesizer {
	return &Synthesizer{
		llm:       llm,
		model:     llmModel,
		maxTokens: maxTokens,
		weights:   weights,
	}
}

// Synthesize runs the final LLM pass over all four topic transcripts plus
// the dossier and assembles the complete score card, unified score included.
func (s *Synthesizer) Synthesize(ctx context.Context, companyName string, dossier model.Dossier, results map[model.Topic]TopicResult) (*model.ScoreCard, error) {
	resp, err := s.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: synthesisPrompt(companyName, dossier.OrganizationJSON(), results),
		}},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: synthesize %s", companyName)
	}
	resp.Usage.LogCost(s.model, "synthesis")

	var final model.FinalAnalysis
	if err := json.Unmarshal([]byte(anthropic.CleanJSON(anthropic.Text(resp))), &final); err != nil {
		return nil, eris.Wrapf(err, "scoring: parse synthesis response for %s", companyName)
	}
	if !validVerdict(final.InvestmentReasoning) {
		return nil, eris.Errorf("scoring: investment_reasoning does not open with a verdict token: %.40q", final.InvestmentReasoning)
	}

	card := &model.ScoreCard{Final: final}
	for topic, res := range results {
		card.SetAnalysis(topic, res.Analysis)
	}
	card.UnifiedScore = s.weights.UnifiedScore(card)

	zap.L().Info("synthesis complete",
		zap.String("company", companyName),
		zap.Float64("unified_score", card.UnifiedScore),
	)
	return card, nil
}

func validVerdict(reasoning string) bool {
	for _, token := range verdictTokens {
		if strings.HasPrefix(reasoning, token) {
			return true
		}
	}
	return false
}

func synthesisPrompt(companyName, dossierJSON string, results map[model.Topic]TopicResult) string {
	return fmt.Sprintf(`You are a senior analyst synthesizing research for a Ukrainian upstream oil and gas asset management firm. Your sole focus is to find potential partners or potential investors in the upstream oil and gas sector.
Based ONLY on the provided research transcript and dossier for **%[1]s**, generate a final, holistic profile.

**Primary Investment Thesis:** We are looking for partners who are EITHER **investment firms, funds or offices with primary portfolio of upstream oil and gas sector** OR **operators of upstream oil and gas assets**. Our ideal partner is a **mid-sized company (50-5,000 employees)** with a focus on **geopolitically high-risk regions (e.g., Africa, South America, Eastern Europe)**, and has **no ties to Russia**.

**Instructions for 'investment_reasoning':**
1.  **Strictly adhere to the provided text.** Do not use outside knowledge. If the text doesn't support a conclusion, state that the information is not available.
2.  Start your reasoning with "Yes", "No", or "Depends".
3.  **"No":** Immediately say "No" if the company is completely irrelevant (e.g., a software or retail company with no energy assets).
4.  **"Depends":** Use "Depends" for companies that meet some but not all criteria (e.g., they are in the right industry but the wrong size, or they are upstream but in a different geography, or they meet all criteria but have ties with Russia or are a huge conglomerate). Explain the nuance clearly.
5.  **"Yes":** Only say "Yes" if the company is a strong fit across the majority of the criteria (Upstream Oil & Gas, Mid-Sized, High-Risk Geographies, No Russia Ties).

You MUST respond with a valid JSON object containing exactly these keys: "investment_reasoning", "business_summary", "investments_summary", "company_size", "russia_ties", "ukraine_ties_analysis", "high_risk_regions_analysis". Do not include any other text, markdown, or explanations.

**Company Name:** %[1]s
**Dossier:** %[2]s

--- RESEARCH TRANSCRIPTS (Use ONLY this information) ---
Geography Research:
%[3]s

Industry Research:
%[4]s

Russia Ties Research:
%[5]s

Size Research:
%[6]s
--- END RESEARCH ---`,
		companyName,
		dossierJSON,
		results[model.TopicGeography].Transcript,
		results[model.TopicIndustry].Transcript,
		results[model.TopicRussia].Transcript,
		results[model.TopicSize].Transcript,
	)
}
