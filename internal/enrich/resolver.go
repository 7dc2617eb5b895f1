package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/odysseus/internal/model"
	"github.com/sells-group/odysseus/pkg/anthropic"
	"github.com/sells-group/odysseus/pkg/apollo"
)

var titleCaser = cases.Title(language.English)

// Researcher is the slice of the research aggregator the resolver needs.
type Researcher interface {
	Research(ctx context.Context, queries []string) (string, []model.Source, error)
}

// Resolver produces a firmographic dossier for a domain. The primary path is
// the enrichment provider; any primary failure falls back to a short research
// pass interpreted by the LLM.
type Resolver struct {
	apollo     apollo.Client
	researcher Researcher
	llm        anthropic.Client
	model      string
	maxTokens  int64
	backoff    time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFallbackBackoff overrides the base delay between fallback attempts.
func WithFallbackBackoff(d time.Duration) Option {
	return func(r *Resolver) {
		r.backoff = d
	}
}

// NewResolver builds a Resolver.
func NewResolver(apolloClient apollo.Client, researcher Researcher, llm anthropic.Client, llmModel string, maxTokens int64, opts ...Option) *Resolver {
	r := &Resolver{
		apollo:     apolloClient,
		researcher: researcher,
		llm:        llm,
		model:      llmModel,
		maxTokens:  maxTokens,
		backoff:    2 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve normalizes the domain and returns its dossier. Primary enrichment
// failures (transport errors or no matching organization) fall through to the
// LLM fallback; the error returned here means both paths are exhausted.
func (r *Resolver) Resolve(ctx context.Context, domain string) (model.Dossier, error) {
	norm := NormalizeDomain(domain)
	if norm == "" {
		return nil, eris.Errorf("enrich: empty domain after normalization of %q", domain)
	}

	resp, err := r.apollo.EnrichOrganization(ctx, norm)
	switch {
	case err != nil:
		zap.L().Warn("primary enrichment failed",
			zap.String("domain", norm),
			zap.Error(err),
		)
	case resp.Organization == nil:
		zap.L().Warn("primary enrichment found no organization",
			zap.String("domain", norm),
		)
	default:
		org := resp.Organization
		if lu, ok := org["linkedin_url"].(string); ok {
			org["linkedin_url"] = strings.TrimRight(lu, ".")
		}
		return model.Dossier{"organization": org}, nil
	}

	return r.fallback(ctx, norm)
}

// fallback runs a two-query research pass and asks the LLM to extract the
// company name and LinkedIn URL from the transcript. Up to three attempts,
// since the model occasionally returns malformed JSON.
func (r *Resolver) fallback(ctx context.Context, domain string) (model.Dossier, error) {
	transcript, _, err := r.researcher.Research(ctx, []string{
		fmt.Sprintf("company name for %s", domain),
		fmt.Sprintf("%s official linkedin page", domain),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: fallback research for %s", domain)
	}

	prompt := fallbackPrompt(domain, transcript)

	const maxAttempts = 3
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff * time.Duration(attempt-1)):
			}
		}

		resp, err := r.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     r.model,
			MaxTokens: r.maxTokens,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
		if err != nil {
			lastErr = err
			zap.L().Warn("fallback enrichment attempt failed",
				zap.String("domain", domain),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		resp.Usage.LogCost(r.model, "enrich_fallback")

		var parsed struct {
			Name        *string `json:"name"`
			LinkedInURL *string `json:"linkedin_url"`
		}
		if err := json.Unmarshal([]byte(anthropic.CleanJSON(anthropic.Text(resp))), &parsed); err != nil {
			lastErr = eris.Wrapf(err, "enrich: parse fallback response for %s", domain)
			zap.L().Warn("fallback enrichment returned malformed json",
				zap.String("domain", domain),
				zap.Int("attempt", attempt),
			)
			continue
		}

		org := map[string]any{}
		if parsed.Name != nil && *parsed.Name != "" {
			org["name"] = *parsed.Name
		} else {
			org["name"] = displayNameFromDomain(domain)
		}
		if parsed.LinkedInURL != nil && *parsed.LinkedInURL != "" {
			org["linkedin_url"] = strings.TrimRight(*parsed.LinkedInURL, ".")
		}
		return model.Dossier{"organization": org}, nil
	}

	return nil, eris.Wrapf(lastErr, "enrich: fallback exhausted for %s", domain)
}

func fallbackPrompt(domain, transcript string) string {
	return fmt.Sprintf(`Analyze the following web search transcript for the domain %q.
Your task is to extract the company's official name and its official LinkedIn URL.

Research Transcript:
---
%s
---

You MUST respond with a valid JSON object. Do not include any other text, markdown, or explanations.
The JSON object should contain "name" and "linkedin_url" as keys.
If a value cannot be confidently determined from the text, return null for that key.

Example of a perfect response:
{"name": "Example Corp", "linkedin_url": "https://www.linkedin.com/company/example"}`, domain, transcript)
}
