// Package vetting drives the per-company vetting lifecycle: the durable
// status transitions around enrichment, scoring and synthesis.
package vetting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/odysseus/internal/model"
	"github.com/sells-group/odysseus/internal/scoring"
	"github.com/sells-group/odysseus/internal/store"
)

// Enricher resolves a domain into a firmographic dossier.
type Enricher interface {
	Resolve(ctx context.Context, domain string) (model.Dossier, error)
}

// Scorer runs the four-topic research and scoring pass.
type Scorer interface {
	Score(ctx context.Context, companyName string, dossier model.Dossier) (map[model.Topic]scoring.TopicResult, error)
}

// Synthesizer produces the final score card from the topic results.
type Synthesizer interface {
	Synthesize(ctx context.Context, companyName string, dossier model.Dossier, results map[model.Topic]scoring.TopicResult) (*model.ScoreCard, error)
}

// Runner processes batches of company ids. Companies are handled strictly
// sequentially within a batch; every company ends a run in a terminal state
// (Vetted or Failed) no matter how its processing went.
type Runner struct {
	store       store.Store
	enricher    Enricher
	scorer      Scorer
	synthesizer Synthesizer

	softLimit time.Duration
	hardLimit time.Duration
}

// NewRunner builds a Runner. softLimit bounds each company's wall-clock
// budget; hardLimit bounds a whole batch invocation.
func NewRunner(st store.Store, enricher Enricher, scorer Scorer, synthesizer Synthesizer, softLimit, hardLimit time.Duration) *Runner {
	if softLimit <= 0 {
		softLimit = 2000 * time.Second
	}
	if hardLimit <= 0 {
		hardLimit = 2500 * time.Second
	}
	return &Runner{
		store:       st,
		enricher:    enricher,
		scorer:      scorer,
		synthesizer: synthesizer,
		softLimit:   softLimit,
		hardLimit:   hardLimit,
	}
}

// RunBatch vets the given company ids one at a time and returns a summary
// string. Individual failures mark that company Failed and processing moves
// on; the batch itself never returns an error for them. Only a dead batch
// context cuts the loop short, and even then every started company has been
// driven to a terminal status first.
func (r *Runner) RunBatch(ctx context.Context, companyIDs []int64) string {
	batchID := uuid.New().String()
	ctx, cancel := context.WithTimeout(ctx, r.hardLimit)
	defer cancel()

	zap.L().Info("vetting batch started",
		zap.String("batch_id", batchID),
		zap.Int("companies", len(companyIDs)),
	)

	vetted := 0
	for _, id := range companyIDs {
		if ctx.Err() != nil {
			zap.L().Warn("batch budget exhausted, remaining companies untouched",
				zap.String("batch_id", batchID),
				zap.Int64("company_id", id),
			)
			break
		}

		entered, err := r.vetOne(ctx, id)
		if err != nil {
			zap.L().Error("company vetting failed",
				zap.String("batch_id", batchID),
				zap.Int64("company_id", id),
				zap.Error(err),
			)
			// Only companies this run moved into Vetting get the Failed
			// write; anything rejected before entry keeps its status
			// (Approved/Rejected are human-owned).
			if entered {
				r.markFailed(id)
			}
			continue
		}
		vetted++
	}

	summary := fmt.Sprintf("vetted %d of %d companies", vetted, len(companyIDs))
	zap.L().Info("vetting batch finished",
		zap.String("batch_id", batchID),
		zap.String("summary", summary),
	)
	return summary
}

// vetOne runs the full pipeline for one company under the soft time budget.
// entered reports whether the company was moved into Vetting, which is the
// condition for the caller to drive it on to Failed after an error.
func (r *Runner) vetOne(ctx context.Context, id int64) (entered bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.softLimit)
	defer cancel()

	company, err := r.store.GetCompany(ctx, id)
	if err != nil {
		return false, eris.Wrapf(err, "vetting: load company %d", id)
	}
	if !company.Status.CanTransition(model.StatusVetting) {
		return false, eris.Errorf("vetting: company %d in status %s cannot enter vetting", id, company.Status)
	}

	if err := r.store.UpdateStatus(ctx, id, model.StatusVetting); err != nil {
		return false, eris.Wrapf(err, "vetting: mark company %d vetting", id)
	}

	dossier, err := r.enricher.Resolve(ctx, company.Domain)
	if err != nil {
		return true, eris.Wrapf(err, "vetting: enrich company %d", id)
	}

	companyName := dossier.OrganizationName()
	results, err := r.scorer.Score(ctx, companyName, dossier)
	if err != nil {
		return true, eris.Wrapf(err, "vetting: score company %d", id)
	}

	card, err := r.synthesizer.Synthesize(ctx, companyName, dossier, results)
	if err != nil {
		return true, eris.Wrapf(err, "vetting: synthesize company %d", id)
	}

	name := companyName
	if name == "" {
		name = company.Domain
	}
	err = r.store.UpdateVettingResult(ctx, id, store.VettingResult{
		Name:        name,
		Dossier:     dossier,
		WebsiteURL:  dossier.WebsiteURL(),
		LinkedInURL: dossier.LinkedInURL(),
		Scores:      card,
	})
	if err != nil {
		return true, eris.Wrapf(err, "vetting: persist result for company %d", id)
	}

	zap.L().Info("company vetted",
		zap.Int64("company_id", id),
		zap.String("name", name),
		zap.Float64("unified_score", card.UnifiedScore),
	)
	return true, nil
}

// markFailed durably records the Failed status for a company that entered
// Vetting this run. The batch context may already be dead by the time we get
// here, so the write uses its own short deadline.
func (r *Runner) markFailed(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.store.UpdateStatus(ctx, id, model.StatusFailed); err != nil {
		zap.L().Error("failed to mark company failed",
			zap.Int64("company_id", id),
			zap.Error(err),
		)
	}
}
