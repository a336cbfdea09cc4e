package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/pipeline"
)

var (
	analyzeAll         bool
	analyzeConcurrency int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [dataset-id]",
	Short: "Run the proximity analysis for a dataset",
	Long:  "Classifies the dataset's customers on the quadrant grid, scores proximity relationships, and records the result as an analysis run. --all refreshes every dataset.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if !analyzeAll && len(args) == 0 {
			return eris.New("a dataset ID or --all is required")
		}
		if analyzeAll && len(args) > 0 {
			return eris.New("--all and a dataset ID are mutually exclusive")
		}

		ov := overridesFromFlags(cmd)

		env, err := initAnalysis(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if !analyzeAll {
			run, err := env.Pipe.Run(ctx, args[0], ov)
			if err != nil {
				return eris.Wrap(err, "analyze")
			}
			formatRunResult(os.Stdout, run)
			return nil
		}

		return analyzeAllDatasets(ctx, env, ov, analyzeConcurrency)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "analyze every dataset")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 4, "max datasets analyzed in parallel with --all")
	analyzeCmd.Flags().Float64("threshold", 0, "lateral proximity threshold override (0 = dataset default)")
	analyzeCmd.Flags().Bool("special-zones", false, "override the dataset's special-zones setting")
	analyzeCmd.Flags().Bool("near-apostles", false, "override the dataset's near-apostles setting")
	rootCmd.AddCommand(analyzeCmd)
}

// overridesFromFlags builds the per-run overrides. Toggles apply only when
// the flag was set, so an absent flag keeps the dataset's stored setting.
func overridesFromFlags(cmd *cobra.Command) pipeline.Overrides {
	var ov pipeline.Overrides
	ov.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	if cmd.Flags().Changed("special-zones") {
		v, _ := cmd.Flags().GetBool("special-zones")
		ov.ShowSpecialZones = &v
	}
	if cmd.Flags().Changed("near-apostles") {
		v, _ := cmd.Flags().GetBool("near-apostles")
		ov.ShowNearApostles = &v
	}
	return ov
}

// analyzeAllDatasets refreshes every dataset concurrently. Individual
// failures are logged and counted without aborting the batch.
func analyzeAllDatasets(ctx context.Context, env *analysisEnv, ov pipeline.Overrides, concurrency int) error {
	datasets, err := env.Store.ListDatasets(ctx)
	if err != nil {
		return eris.Wrap(err, "analyze: list datasets")
	}
	if len(datasets) == 0 {
		zap.L().Info("no datasets to analyze")
		return nil
	}

	zap.L().Info("analyzing datasets",
		zap.Int("datasets", len(datasets)),
		zap.Int("concurrency", concurrency),
	)

	bar := progressbar.Default(int64(len(datasets)), "analyzing")
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, ds := range datasets {
		g.Go(func() error {
			log := zap.L().With(zap.String("dataset_id", ds.ID), zap.String("name", ds.Name))

			run, err := env.Pipe.Run(gctx, ds.ID, ov)
			_ = bar.Add(1)
			if err != nil {
				failed.Add(1)
				log.Error("analysis failed", zap.Error(err))
				return nil // keep going; the run record carries the failure
			}

			succeeded.Add(1)
			log.Info("analysis complete",
				zap.String("run_id", run.ID),
				zap.Float64("avg_risk", run.Result.Summary.AverageRiskScore),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "analyze batch")
	}
	_ = bar.Finish()

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

// formatRunResult writes the headline numbers and the relationship table
// for one completed run.
func formatRunResult(out io.Writer, run *model.AnalysisRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", run.ID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", run.Status)

	if run.Result == nil {
		if run.Error != "" {
			_, _ = fmt.Fprintf(w, "Error:\t%s\n", run.Error)
		}
		_ = w.Flush()
		return
	}

	res := run.Result
	if !res.Settings.IsAvailable {
		_, _ = fmt.Fprintf(w, "Proximity:\tunavailable (%s)\n", res.Settings.UnavailableReason)
		_ = w.Flush()
		return
	}

	_, _ = fmt.Fprintf(w, "Threshold:\t%.2f\n", res.Settings.Threshold)
	_, _ = fmt.Fprintf(w, "Matches:\t%d\n", res.Summary.TotalCustomers)
	_, _ = fmt.Fprintf(w, "Avg risk:\t%.1f\n", res.Summary.AverageRiskScore)
	_, _ = fmt.Fprintf(w, "Crossroads:\t%d\n", len(res.Crossroads))
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RELATIONSHIP\tCUSTOMERS\tAVG_DIST\tRISK")
	_, _ = fmt.Fprintln(w, "------------\t---------\t--------\t----")
	for _, d := range res.Details {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\n",
			d.Label, d.CustomerCount, d.AverageDistance, d.RiskLevel)
	}
	_ = w.Flush()
}
