package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/sells-group/odysseus/internal/vetting"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a vetting task-queue worker",
	Long:  "Connects to Temporal and processes vetting workflows and batch activities until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runner, st, err := buildRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			return eris.Wrap(err, "dial temporal")
		}
		defer tc.Close()

		w := worker.New(tc, cfg.Temporal.TaskQueue, worker.Options{})
		w.RegisterWorkflow(vetting.VetCompaniesWorkflow)

		activities := &vetting.Activities{Runner: runner}
		w.RegisterActivityWithOptions(activities.VetBatch, activity.RegisterOptions{
			Name: vetting.VetBatchActivityName,
		})

		zap.L().Info("worker started",
			zap.String("task_queue", cfg.Temporal.TaskQueue),
			zap.String("namespace", cfg.Temporal.Namespace),
		)
		return eris.Wrap(w.Run(worker.InterruptCh()), "run worker")
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
