package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/sells-group/odysseus/internal/model"
	"github.com/sells-group/odysseus/internal/vetting"
)

var (
	vetIDs    []int64
	vetAllNew bool
	vetLocal  bool
)

var vetCmd = &cobra.Command{
	Use:   "vet",
	Short: "Vet companies by id",
	Long:  "Dispatches the given company ids to the vetting workflow. With --all-new, vets every company currently in status New. With --local, runs batches in-process instead of through the task queue.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ids := vetIDs
		if vetAllNew {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			companies, err := st.ListByStatus(ctx, model.StatusNew, 0)
			st.Close()
			if err != nil {
				return eris.Wrap(err, "list new companies")
			}
			for _, c := range companies {
				ids = append(ids, c.ID)
			}
		}
		if len(ids) == 0 {
			return eris.New("no company ids to vet (use --ids or --all-new)")
		}

		if vetLocal {
			return vetLocally(cmd, ids)
		}

		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			return eris.Wrap(err, "dial temporal")
		}
		defer tc.Close()

		run, err := tc.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			TaskQueue: cfg.Temporal.TaskQueue,
		}, vetting.VetCompaniesWorkflow, vetting.VetCompaniesInput{
			CompanyIDs:    ids,
			BatchSize:     cfg.Vetting.BatchSize,
			HardLimitSecs: cfg.Vetting.HardTimeLimitSecs,
		})
		if err != nil {
			return eris.Wrap(err, "start vetting workflow")
		}

		zap.L().Info("vetting workflow dispatched",
			zap.String("workflow_id", run.GetID()),
			zap.Int("companies", len(ids)),
		)

		var summaries []string
		if err := run.Get(ctx, &summaries); err != nil {
			return eris.Wrap(err, "await vetting workflow")
		}
		for _, s := range summaries {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

// vetLocally runs the batches in-process, chunked the same way the workflow
// would chunk them.
func vetLocally(cmd *cobra.Command, ids []int64) error {
	ctx := cmd.Context()

	runner, st, err := buildRunner(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, chunk := range vetting.ChunkIDs(ids, cfg.Vetting.BatchSize) {
		fmt.Fprintln(cmd.OutOrStdout(), runner.RunBatch(ctx, chunk))
	}
	return nil
}

func init() {
	vetCmd.Flags().Int64SliceVar(&vetIDs, "ids", nil, "company ids to vet")
	vetCmd.Flags().BoolVar(&vetAllNew, "all-new", false, "vet every company in status New")
	vetCmd.Flags().BoolVar(&vetLocal, "local", false, "run batches in-process instead of dispatching to the task queue")
	rootCmd.AddCommand(vetCmd)
}
