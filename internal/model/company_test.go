package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusVetted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusNew.Terminal())
	assert.False(t, StatusVetting.Terminal())
}

func TestStatusCanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusNew.CanTransition(StatusVetting))
	assert.True(t, StatusVetting.CanTransition(StatusVetted))
	assert.True(t, StatusVetting.CanTransition(StatusFailed))

	// Retry path: a failed or already-vetted company may be resubmitted.
	assert.True(t, StatusFailed.CanTransition(StatusVetting))
	assert.True(t, StatusVetted.CanTransition(StatusVetting))

	assert.False(t, StatusNew.CanTransition(StatusVetted))
	assert.False(t, StatusVetting.CanTransition(StatusVetting))
	assert.False(t, StatusApproved.CanTransition(StatusVetting))
	assert.False(t, StatusRejected.CanTransition(StatusVetting))
}

func TestDossierAccessors(t *testing.T) {
	t.Parallel()

	d := Dossier{
		"organization": map[string]any{
			"id":           "5f2c7e",
			"name":         "Acme Energy",
			"linkedin_url": "https://linkedin.com/company/acme-energy",
			"website_url":  "https://acme-energy.com",
			"employees":    float64(420),
		},
	}

	assert.Equal(t, "Acme Energy", d.OrganizationName())
	assert.Equal(t, "5f2c7e", d.OrganizationID())
	assert.Equal(t, "https://linkedin.com/company/acme-energy", d.LinkedInURL())
	assert.Equal(t, "https://acme-energy.com", d.WebsiteURL())
}

func TestDossierAccessorsMissing(t *testing.T) {
	t.Parallel()

	var d Dossier
	assert.Nil(t, d.Organization())
	assert.Empty(t, d.OrganizationName())
	assert.Equal(t, "{}", d.OrganizationJSON())

	d = Dossier{"organization": "not an object"}
	assert.Empty(t, d.OrganizationName())
}

func TestDossierOrganizationJSON(t *testing.T) {
	t.Parallel()

	d := Dossier{"organization": map[string]any{"name": "Acme"}}
	require.JSONEq(t, `{"name":"Acme"}`, d.OrganizationJSON())
}

func TestUnifiedScoreWeighting(t *testing.T) {
	t.Parallel()

	card := &ScoreCard{
		Geography: TopicAnalysis{Score: 8},
		Industry:  TopicAnalysis{Score: 6},
		Russia:    TopicAnalysis{Score: 10},
		Size:      TopicAnalysis{Score: 4},
	}

	// 0.33*8 + 0.33*6 + 0.17*10 + 0.17*4 = 7.00
	got := DefaultWeights().UnifiedScore(card)
	assert.InDelta(t, 7.00, got, 1e-9)
}

func TestUnifiedScoreRounding(t *testing.T) {
	t.Parallel()

	card := &ScoreCard{
		Geography: TopicAnalysis{Score: 7},
		Industry:  TopicAnalysis{Score: 7},
		Russia:    TopicAnalysis{Score: 3},
		Size:      TopicAnalysis{Score: 3},
	}

	// 0.33*7 + 0.33*7 + 0.17*3 + 0.17*3 = 5.64
	assert.InDelta(t, 5.64, DefaultWeights().UnifiedScore(card), 1e-9)
}

func TestScoreCardAnalysisRoundTrip(t *testing.T) {
	t.Parallel()

	var card ScoreCard
	for i, topic := range Topics {
		card.SetAnalysis(topic, TopicAnalysis{Score: i + 1, Reasoning: string(topic)})
	}
	for i, topic := range Topics {
		got := card.Analysis(topic)
		assert.Equal(t, i+1, got.Score)
		assert.Equal(t, string(topic), got.Reasoning)
	}
}
