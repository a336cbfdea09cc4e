package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/ingest"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

var (
	importDatasetID string
	importFile      string
	importFTPURL    string
	importEncoding  string
	importDelimiter string
	importSheet     string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import survey responses into a dataset",
	Long:  "Parses a CSV or XLSX survey export, validates every row against the dataset's scales, and replaces the dataset's customers with the parsed points.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importFile == "" && importFTPURL == "" {
			return eris.New("either --file or --ftp is required")
		}
		if importFile != "" && importFTPURL != "" {
			return eris.New("--file and --ftp are mutually exclusive")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ds, err := st.GetDataset(ctx, importDatasetID)
		if err != nil {
			return eris.Wrap(err, "import")
		}
		sat, err := grid.ParseScale(ds.SatisfactionScale)
		if err != nil {
			return eris.Wrap(err, "import")
		}
		loy, err := grid.ParseScale(ds.LoyaltyScale)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		opts := importOptions()
		bar := progressbar.Default(-1, "reading rows")
		opts.Progress = func() { _ = bar.Add(1) }

		path := importFile
		if importFTPURL != "" {
			fetcher := ingest.NewFTPFetcher(ingest.FTPOptions{
				User:     cfg.Import.FTP.User,
				Password: cfg.Import.FTP.Password,
				Timeout:  time.Duration(cfg.Import.FTP.TimeoutSecs) * time.Second,
			})
			tmp, err := fetcher.DownloadToTemp(ctx, importFTPURL)
			if err != nil {
				return eris.Wrap(err, "import")
			}
			defer os.Remove(tmp) //nolint:errcheck
			path = tmp
		}

		res, err := ingest.ReadFile(ctx, path, sat, loy, opts)
		_ = bar.Finish()
		if err != nil {
			return eris.Wrap(err, "import")
		}

		stored, err := st.ReplaceCustomers(ctx, ds.ID, res.Points)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.String("dataset_id", ds.ID),
			zap.Int("rows_read", res.Summary.RowsRead),
			zap.Int("imported", res.Summary.Imported),
			zap.Int("stored", stored),
			zap.Int("skipped", res.Summary.Skipped),
		)
		formatImportSummary(os.Stdout, res.Summary)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDatasetID, "dataset", "", "target dataset ID (required)")
	importCmd.Flags().StringVar(&importFile, "file", "", "path to CSV or XLSX survey export")
	importCmd.Flags().StringVar(&importFTPURL, "ftp", "", "FTP URL of a survey vendor drop, e.g. ftp://host/path.csv")
	importCmd.Flags().StringVar(&importEncoding, "encoding", "", "source charset for legacy exports, e.g. windows-1252 (default: config)")
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "CSV field delimiter (default: config, then comma)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default: config, then first sheet)")
	_ = importCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(importCmd)
}

// importOptions merges the import flags over the config defaults.
func importOptions() ingest.Options {
	opts := ingest.Options{
		Charset: cfg.Import.Charset,
		Sheet:   cfg.Import.Sheet,
	}
	if cfg.Import.Delimiter != "" {
		opts.Delimiter = rune(cfg.Import.Delimiter[0])
	}
	if importEncoding != "" {
		opts.Charset = importEncoding
	}
	if importDelimiter != "" {
		opts.Delimiter = rune(importDelimiter[0])
	}
	if importSheet != "" {
		opts.Sheet = importSheet
	}
	return opts
}

// formatImportSummary writes the import outcome with any per-row issues.
func formatImportSummary(out io.Writer, sum model.ImportSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Rows read:\t%d\n", sum.RowsRead)
	_, _ = fmt.Fprintf(w, "Imported:\t%d\n", sum.Imported)
	_, _ = fmt.Fprintf(w, "Overwritten:\t%d\n", sum.Overwritten)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", sum.Skipped)
	_ = w.Flush()

	if len(sum.Issues) > 0 {
		_, _ = fmt.Fprintf(out, "\nIssues (%d):\n", len(sum.Issues))
		for _, issue := range sum.Issues {
			_, _ = fmt.Fprintf(out, "  row %d: %s\n", issue.Row, issue.Reason)
		}
	}
}
