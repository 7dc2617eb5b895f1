package vetting

import (
	"context"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// VetBatchActivityName is the registered name of the batch activity.
const VetBatchActivityName = "VetBatch"

// VetCompaniesInput parameterizes one vetting workflow run.
type VetCompaniesInput struct {
	CompanyIDs []int64 `json:"company_ids"`
	// BatchSize is how many ids each activity invocation handles. Defaults
	// to 3 when unset.
	BatchSize int `json:"batch_size,omitempty"`
	// HardLimitSecs bounds one activity invocation; it must cover a full
	// sequential batch.
	HardLimitSecs int `json:"hard_limit_secs,omitempty"`
}

// Activities hosts the activity implementations backed by a Runner.
type Activities struct {
	Runner *Runner
}

// VetBatch processes one chunk of ids sequentially and returns the batch
// summary. It never fails for per-company errors; those land as Failed rows.
func (a *Activities) VetBatch(ctx context.Context, companyIDs []int64) (string, error) {
	return a.Runner.RunBatch(ctx, companyIDs), nil
}

// VetCompaniesWorkflow chunks the id list and dispatches one VetBatch
// activity per chunk, in order. Returns the per-batch summaries.
func VetCompaniesWorkflow(ctx workflow.Context, input VetCompaniesInput) ([]string, error) {
	batchSize := input.BatchSize
	if batchSize <= 0 {
		batchSize = 3
	}
	hardLimit := time.Duration(input.HardLimitSecs) * time.Second
	if hardLimit <= 0 {
		hardLimit = 2500 * time.Second
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: hardLimit,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Minute,
			MaximumAttempts: 3,
		},
	})

	logger := workflow.GetLogger(ctx)
	logger.Info("vetting workflow started", "companies", len(input.CompanyIDs), "batch_size", batchSize)

	var summaries []string
	for start := 0; start < len(input.CompanyIDs); start += batchSize {
		end := start + batchSize
		if end > len(input.CompanyIDs) {
			end = len(input.CompanyIDs)
		}
		chunk := input.CompanyIDs[start:end]

		var summary string
		if err := workflow.ExecuteActivity(ctx, VetBatchActivityName, chunk).Get(ctx, &summary); err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}

	logger.Info("vetting workflow finished", "batches", len(summaries))
	return summaries, nil
}

// ChunkIDs splits ids into consecutive groups of size n, preserving order.
// Exposed for direct (non-workflow) dispatch paths.
func ChunkIDs(ids []int64, n int) [][]int64 {
	if n <= 0 {
		n = 3
	}
	var chunks [][]int64
	for start := 0; start < len(ids); start += n {
		end := start + n
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
