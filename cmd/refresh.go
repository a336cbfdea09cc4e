package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/workflow"
)

var (
	refreshDatasets []string
	refreshSchedule bool
	refreshCron     string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Trigger or schedule the dataset refresh workflow",
	Long:  "Starts one refresh of every dataset (or a subset) through Temporal, or registers a cron schedule. A worker must be running to process it.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

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

		if refreshSchedule {
			cron := refreshCron
			if cron == "" {
				cron = cfg.Temporal.Cron
			}
			if cron == "" {
				return eris.New("a cron expression is required (--cron or temporal.cron)")
			}
			wfID, err := workflow.Schedule(ctx, c, queue, cron)
			if err != nil {
				return err
			}
			zap.L().Info("refresh schedule registered",
				zap.String("workflow_id", wfID),
				zap.String("cron", cron),
			)
			return nil
		}

		res, err := workflow.Trigger(ctx, c, queue, workflow.RefreshInput{
			DatasetIDs: refreshDatasets,
		})
		if err != nil {
			return err
		}

		zap.L().Info("refresh complete",
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", res.Failed),
		)
		formatRefreshResult(os.Stdout, res)
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringSliceVar(&refreshDatasets, "datasets", nil, "dataset IDs to refresh (default: all)")
	refreshCmd.Flags().BoolVar(&refreshSchedule, "schedule", false, "register a cron schedule instead of running once")
	refreshCmd.Flags().StringVar(&refreshCron, "cron", "", "cron expression for --schedule (default: temporal.cron)")
	rootCmd.AddCommand(refreshCmd)
}

// formatRefreshResult writes the per-dataset outcomes of one refresh.
func formatRefreshResult(out io.Writer, res *workflow.RefreshResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATASET\tNAME\tRUN\tAVG_RISK\tERROR")
	_, _ = fmt.Fprintln(w, "-------\t----\t---\t--------\t-----")

	for _, o := range res.Outcomes {
		runID, avgRisk := "-", "-"
		if o.RunID != "" {
			runID = truncateID(o.RunID)
			avgRisk = fmt.Sprintf("%.1f", o.AverageRiskScore)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(o.DatasetID), o.Name, runID, avgRisk, o.Error)
	}
	_ = w.Flush()
}
