package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/insights"
	"github.com/JaimeV365/segmentor-sub003/internal/report"
)

var (
	reportRunID     string
	reportOut       string
	reportFormat    string
	reportTemplate  string
	reportSections  string
	reportNarrative bool
)

var reportCmd = &cobra.Command{
	Use:   "report <dataset-id>",
	Short: "Render an analysis report",
	Long:  "Builds the report payload from a dataset's latest complete run (or --run) and renders it as markdown or an XLSX workbook.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ds, err := st.GetDataset(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "report")
		}
		points, err := st.ListCustomers(ctx, ds.ID)
		if err != nil {
			return eris.Wrap(err, "report")
		}
		run, err := resolveRun(ctx, st, ds.ID, reportRunID)
		if err != nil {
			return err
		}

		data, err := report.Build(report.Input{
			Dataset: *ds,
			Points:  points,
			Result:  run.Result,
			Now:     time.Now(),
		})
		if err != nil {
			return eris.Wrap(err, "report")
		}

		// Narratives are a premium feature; Build enforces the same gate.
		if reportNarrative && ds.Premium {
			text, err := insights.New(cfg.Anthropic).Narrate(ctx, data)
			if err != nil {
				return eris.Wrap(err, "report")
			}
			data.Narrative = text
		}

		switch reportFormat {
		case "xlsx":
			if reportOut == "" {
				return eris.New("--out is required for xlsx reports")
			}
			if err := report.WriteXLSX(data, reportOut); err != nil {
				return eris.Wrap(err, "report")
			}
		case "md", "markdown":
			md, err := renderMarkdown(data)
			if err != nil {
				return err
			}
			if reportOut == "" {
				fmt.Print(md)
				return nil
			}
			if err := os.WriteFile(reportOut, []byte(md), 0o644); err != nil {
				return eris.Wrap(err, "report: write output")
			}
		default:
			return eris.Errorf("unknown report format %q (want md or xlsx)", reportFormat)
		}

		zap.L().Info("report written",
			zap.String("dataset_id", ds.ID),
			zap.String("run_id", run.ID),
			zap.String("format", reportFormat),
			zap.String("out", reportOut),
		)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "run ID (default: latest complete run)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output path (default: stdout for markdown)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "report format: md or xlsx")
	reportCmd.Flags().StringVar(&reportTemplate, "template", "", "custom liquid template replacing the whole document")
	reportCmd.Flags().StringVar(&reportSections, "sections", "", "YAML file selecting sections and their order")
	reportCmd.Flags().BoolVar(&reportNarrative, "narrative", false, "add an AI executive narrative (premium datasets)")
	rootCmd.AddCommand(reportCmd)
}

// renderMarkdown renders the payload through the embedded templates, a
// section config, or a full custom template.
func renderMarkdown(data *report.ReportData) (string, error) {
	r, err := report.NewRenderer()
	if err != nil {
		return "", eris.Wrap(err, "report")
	}

	if reportTemplate != "" {
		out, err := r.RenderFile(reportTemplate, data)
		if err != nil {
			return "", eris.Wrap(err, "report")
		}
		return out, nil
	}

	if warnings, err := r.ValidateVariables(data); err == nil {
		for _, wmsg := range warnings {
			zap.L().Warn("report: unresolved template variable", zap.String("variable", wmsg))
		}
	}

	var sections *report.SectionConfig
	if reportSections != "" {
		sections, err = report.LoadSectionConfig(reportSections)
		if err != nil {
			return "", eris.Wrap(err, "report")
		}
	}

	out, err := r.Render(data, sections)
	if err != nil {
		return "", eris.Wrap(err, "report")
	}
	return out, nil
}
