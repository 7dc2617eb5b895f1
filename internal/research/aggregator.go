// Package research turns a set of search queries into a single evidence
// transcript suitable for prompting, plus the list of sources behind it.
package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/odysseus/internal/model"
	"github.com/sells-group/odysseus/internal/webfetch"
)

// Aggregator fans queries out to the fetch layer and assembles the results.
type Aggregator struct {
	fetcher            webfetch.Fetcher
	maxFullTextSources int
}

// NewAggregator builds an aggregator over the given fetcher. maxFullTextSources
// bounds how many deduplicated sources get a full-text fetch per call.
func NewAggregator(fetcher webfetch.Fetcher, maxFullTextSources int) *Aggregator {
	if maxFullTextSources <= 0 {
		maxFullTextSources = 5
	}
	return &Aggregator{
		fetcher:            fetcher,
		maxFullTextSources: maxFullTextSources,
	}
}

// Research runs every query concurrently, deduplicates the combined results by
// URL, fetches full text for the top sources, and renders the evidence
// transcript. Individual query or fetch failures degrade the transcript rather
// than failing the call; Research errors only on context cancellation.
func (a *Aggregator) Research(ctx context.Context, queries []string) (string, []model.Source, error) {
	perQuery := make([][]model.Source, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(queries))
	for i, query := range queries {
		g.Go(func() error {
			sources, err := a.fetcher.Search(gctx, query)
			if err != nil {
				zap.L().Warn("search query failed",
					zap.String("query", query),
					zap.Error(err),
				)
				return nil
			}
			perQuery[i] = sources
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	unique := dedupeByURL(perQuery)

	var sb strings.Builder
	sb.WriteString("### Search Results Summary\n")
	for _, s := range unique {
		fmt.Fprintf(&sb, "- Title: %s\n  URL: %s\n  Snippet: %s\n", s.Name, s.URL, s.Snippet)
	}
	sb.WriteString("\n### Full Text of Top Articles\n")

	top := unique
	if len(top) > a.maxFullTextSources {
		top = top[:a.maxFullTextSources]
	}

	texts := make([]string, len(top))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(a.maxFullTextSources)
	for i, s := range top {
		g.Go(func() error {
			text, err := a.fetcher.FetchText(gctx, s.URL)
			if err != nil {
				zap.L().Warn("full text fetch failed",
					zap.String("url", s.URL),
					zap.Error(err),
				)
				texts[i] = fmt.Sprintf("FAILED TO FETCH (%v)", err)
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	for i, s := range top {
		fmt.Fprintf(&sb, "---\nSource URL: %s\nContent: %s\n---\n\n", s.URL, texts[i])
	}

	zap.L().Debug("research complete",
		zap.Int("queries", len(queries)),
		zap.Int("unique_sources", len(unique)),
		zap.Int("full_text", len(top)),
	)
	return sb.String(), unique, nil
}

// dedupeByURL flattens per-query results into one list, keeping the first
// occurrence of each URL. Order follows query order, then rank within a query.
func dedupeByURL(perQuery [][]model.Source) []model.Source {
	seen := make(map[string]struct{})
	var unique []model.Source
	for _, sources := range perQuery {
		for _, s := range sources {
			if s.URL == "" {
				continue
			}
			if _, ok := seen[s.URL]; ok {
				continue
			}
			seen[s.URL] = struct{}{}
			unique = append(unique, s)
		}
	}
	return unique
}
