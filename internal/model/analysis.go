package model

import "math"

// Topic identifies one of the four fixed scoring dimensions.
type Topic string

const (
	TopicGeography Topic = "geography"
	TopicIndustry  Topic = "industry"
	TopicRussia    Topic = "russia"
	TopicSize      Topic = "size"
)

// Topics lists the four dimensions in canonical order.
var Topics = []Topic{TopicGeography, TopicIndustry, TopicRussia, TopicSize}

// TopicAnalysis is the scored output for one topic. Ephemeral: produced by
// the scorer and merged into the company's ScoreCard on success.
type TopicAnalysis struct {
	Score     int      `json:"score"`
	Reasoning string   `json:"reasoning"`
	Sources   []Source `json:"sources,omitempty"`
}

// FinalAnalysis is the synthesis stage output. InvestmentReasoning always
// starts with one of the literal tokens "Yes", "No" or "Depends".
type FinalAnalysis struct {
	InvestmentReasoning     string `json:"investment_reasoning"`
	BusinessSummary         string `json:"business_summary"`
	InvestmentsSummary      string `json:"investments_summary"`
	CompanySize             string `json:"company_size"`
	RussiaTies              string `json:"russia_ties"`
	UkraineTiesAnalysis     string `json:"ukraine_ties_analysis"`
	HighRiskRegionsAnalysis string `json:"high_risk_regions_analysis"`
}

// ScoreCard holds the complete score payload written with the Vetted status.
// All fields are written together; external readers never see a partial card.
type ScoreCard struct {
	UnifiedScore float64 `json:"unified_score"`

	Geography TopicAnalysis `json:"geography"`
	Industry  TopicAnalysis `json:"industry"`
	Russia    TopicAnalysis `json:"russia"`
	Size      TopicAnalysis `json:"size"`

	Final FinalAnalysis `json:"final"`
}

// Analysis returns the TopicAnalysis for the given topic.
func (c *ScoreCard) Analysis(t Topic) TopicAnalysis {
	switch t {
	case TopicGeography:
		return c.Geography
	case TopicIndustry:
		return c.Industry
	case TopicRussia:
		return c.Russia
	case TopicSize:
		return c.Size
	}
	return TopicAnalysis{}
}

// SetAnalysis stores the TopicAnalysis for the given topic.
func (c *ScoreCard) SetAnalysis(t Topic, a TopicAnalysis) {
	switch t {
	case TopicGeography:
		c.Geography = a
	case TopicIndustry:
		c.Industry = a
	case TopicRussia:
		c.Russia = a
	case TopicSize:
		c.Size = a
	}
}

// Weights assigns the relative contribution of each topic to the unified
// score. The defaults are load-bearing for cross-company comparability; keep
// them unless every stored score is recomputed.
type Weights struct {
	Geography float64 `yaml:"geography" mapstructure:"geography"`
	Industry  float64 `yaml:"industry" mapstructure:"industry"`
	Russia    float64 `yaml:"russia" mapstructure:"russia"`
	Size      float64 `yaml:"size" mapstructure:"size"`
}

// DefaultWeights returns the production weighting (sums to 1.0).
func DefaultWeights() Weights {
	return Weights{Geography: 0.33, Industry: 0.33, Russia: 0.17, Size: 0.17}
}

// UnifiedScore computes the weighted composite of the four topic scores,
// rounded to 2 decimals.
func (w Weights) UnifiedScore(c *ScoreCard) float64 {
	sum := w.Geography*float64(c.Geography.Score) +
		w.Industry*float64(c.Industry.Score) +
		w.Russia*float64(c.Russia.Score) +
		w.Size*float64(c.Size.Score)
	return math.Round(sum*100) / 100
}
