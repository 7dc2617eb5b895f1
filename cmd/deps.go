package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/odysseus/internal/enrich"
	"github.com/sells-group/odysseus/internal/research"
	"github.com/sells-group/odysseus/internal/scoring"
	"github.com/sells-group/odysseus/internal/store"
	"github.com/sells-group/odysseus/internal/vetting"
	"github.com/sells-group/odysseus/internal/webfetch"
	anthropicpkg "github.com/sells-group/odysseus/pkg/anthropic"
	"github.com/sells-group/odysseus/pkg/apollo"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "odysseus.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildRunner wires the full vetting pipeline: fetch layer, research
// aggregator, enrichment resolver, scorer and synthesizer over the store.
func buildRunner(ctx context.Context) (*vetting.Runner, store.Store, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	fetcher := webfetch.NewClient(cfg.Proxy, cfg.Research)
	aggregator := research.NewAggregator(fetcher, cfg.Research.MaxFullTextSources)

	apolloClient := apollo.NewClient(cfg.Apollo.Key,
		apollo.WithBaseURL(cfg.Apollo.BaseURL),
		apollo.WithTimeout(time.Duration(cfg.Apollo.TimeoutSecs)*time.Second),
	)
	llm := anthropicpkg.NewClient(cfg.Anthropic.Key)

	resolver := enrich.NewResolver(apolloClient, aggregator, llm, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	scorer := scoring.NewScorer(aggregator, llm, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	synthesizer := scoring.NewSynthesizer(llm, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, cfg.Vetting.Weights)

	runner := vetting.NewRunner(st, resolver, scorer, synthesizer,
		time.Duration(cfg.Vetting.SoftTimeLimitSecs)*time.Second,
		time.Duration(cfg.Vetting.HardTimeLimitSecs)*time.Second,
	)
	return runner, st, nil
}
