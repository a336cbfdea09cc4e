package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/workflow"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal refresh worker",
	Long:  "Registers the scheduled-refresh workflow and its activities and processes tasks until interrupted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initAnalysis(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			return eris.Wrap(err, "temporal dial")
		}
		defer c.Close()

		queue := cfg.Temporal.TaskQueue
		if queue == "" {
			queue = workflow.TaskQueue
		}

		acts := workflow.NewActivities(env.Store, env.Pipe)
		w := workflow.NewWorker(c, queue, acts)

		zap.L().Info("starting refresh worker",
			zap.String("host_port", cfg.Temporal.HostPort),
			zap.String("namespace", cfg.Temporal.Namespace),
			zap.String("task_queue", queue),
		)
		if err := w.Run(worker.InterruptCh()); err != nil {
			return eris.Wrap(err, "worker run")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
