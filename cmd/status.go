package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/JaimeV365/segmentor-sub003/internal/monitoring"
)

var (
	statusLookback int
	statusJSON     bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system health metrics",
	Long:  "Collects run outcomes, dataset volume and alert conditions over the lookback window.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		collector := monitoring.NewCollector(st, nil)
		snap, err := collector.Collect(ctx, statusLookback)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		alerts := monitoring.NewAlerter(cfg.Monitoring).Evaluate(snap)

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"snapshot": snap,
				"alerts":   alerts,
			})
		}

		formatStatus(os.Stdout, snap, alerts)
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLookback, "lookback", 24, "lookback window in hours")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(statusCmd)
}

// formatStatus writes the health snapshot and any triggered alerts.
func formatStatus(out io.Writer, snap *monitoring.MetricsSnapshot, alerts []monitoring.Alert) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Lookback:\t%dh\n", snap.LookbackHours)
	_, _ = fmt.Fprintf(w, "Runs:\t%d\n", snap.RunsTotal)
	_, _ = fmt.Fprintf(w, "  Complete:\t%d\n", snap.RunsComplete)
	_, _ = fmt.Fprintf(w, "  Failed:\t%d\n", snap.RunsFailed)
	_, _ = fmt.Fprintf(w, "  Running:\t%d\n", snap.RunsRunning)
	_, _ = fmt.Fprintf(w, "  Queued:\t%d\n", snap.RunsQueued)
	_, _ = fmt.Fprintf(w, "Fail rate:\t%.0f%%\n", snap.RunFailRate*100)
	if snap.AvgRiskScore > 0 {
		_, _ = fmt.Fprintf(w, "Avg risk:\t%.1f\n", snap.AvgRiskScore)
	}
	_, _ = fmt.Fprintf(w, "Datasets:\t%d\n", snap.Datasets)
	_, _ = fmt.Fprintf(w, "  Premium:\t%d\n", snap.PremiumDatasets)
	_, _ = fmt.Fprintf(w, "Customers:\t%d\n", snap.Customers)
	_ = w.Flush()

	if len(alerts) == 0 {
		_, _ = fmt.Fprintln(out, "\nNo alerts.")
		return
	}
	_, _ = fmt.Fprintf(out, "\nAlerts (%d):\n", len(alerts))
	for _, a := range alerts {
		_, _ = fmt.Fprintf(out, "  [%s] %s\n", a.Type, a.Message)
	}
}
