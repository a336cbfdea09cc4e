package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/insights"
	"github.com/JaimeV365/segmentor-sub003/internal/report"
	"github.com/JaimeV365/segmentor-sub003/pkg/notion"
)

var (
	publishRunID     string
	publishNarrative bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <dataset-id>",
	Short: "Publish a report to Notion",
	Long:  "Renders the dataset's report and creates a page in the configured Notion report database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Notion.Token == "" {
			return eris.New("notion token is required (SEGMENTOR_NOTION_TOKEN)")
		}
		if cfg.Notion.ReportDB == "" {
			return eris.New("notion report DB ID is required (SEGMENTOR_NOTION_REPORT_DB)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ds, err := st.GetDataset(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "publish")
		}
		points, err := st.ListCustomers(ctx, ds.ID)
		if err != nil {
			return eris.Wrap(err, "publish")
		}
		run, err := resolveRun(ctx, st, ds.ID, publishRunID)
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
			return eris.Wrap(err, "publish")
		}
		if publishNarrative && ds.Premium {
			text, err := insights.New(cfg.Anthropic).Narrate(ctx, data)
			if err != nil {
				return eris.Wrap(err, "publish")
			}
			data.Narrative = text
		}

		r, err := report.NewRenderer()
		if err != nil {
			return eris.Wrap(err, "publish")
		}
		md, err := r.Render(data, nil)
		if err != nil {
			return eris.Wrap(err, "publish")
		}

		notionClient := notion.NewClient(cfg.Notion.Token)
		pageID, err := notion.PublishReport(ctx, notionClient, cfg.Notion.ReportDB, notion.PublishInput{
			Title:               fmt.Sprintf("%s %s", ds.Name, time.Now().Format("2006-01-02")),
			Dataset:             ds.Name,
			RunID:               run.ID,
			RiskScore:           run.Result.Summary.AverageRiskScore,
			RecommendationScore: data.Recommendation.Score,
			Markdown:            md,
		})
		if err != nil {
			return eris.Wrap(err, "publish")
		}

		zap.L().Info("report published",
			zap.String("dataset_id", ds.ID),
			zap.String("run_id", run.ID),
			zap.String("page_id", pageID),
		)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishRunID, "run", "", "run ID (default: latest complete run)")
	publishCmd.Flags().BoolVar(&publishNarrative, "narrative", false, "add an AI executive narrative (premium datasets)")
	rootCmd.AddCommand(publishCmd)
}
