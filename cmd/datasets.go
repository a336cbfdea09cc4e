package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage survey datasets",
	Long:  "Commands for creating, listing, inspecting and deleting datasets with their grid settings.",
}

// -- datasets list --

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		datasets, err := st.ListDatasets(ctx)
		if err != nil {
			return eris.Wrap(err, "datasets list")
		}

		if len(datasets) == 0 {
			fmt.Fprintln(os.Stderr, "No datasets found.")
			return nil
		}

		formatDatasetsList(os.Stdout, datasets)
		return nil
	},
}

// -- datasets create --

var datasetsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a dataset",
	Long:  "Creates a dataset with the given grid settings. Unset flags fall back to the analysis section of the config.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		satRaw, _ := cmd.Flags().GetString("satisfaction-scale")
		loyRaw, _ := cmd.Flags().GetString("loyalty-scale")
		midSat, _ := cmd.Flags().GetFloat64("midpoint-sat")
		midLoy, _ := cmd.Flags().GetFloat64("midpoint-loy")
		apostles, _ := cmd.Flags().GetInt("apostles-zone")
		terrorists, _ := cmd.Flags().GetInt("terrorists-zone")
		special, _ := cmd.Flags().GetBool("special-zones")
		nearApostles, _ := cmd.Flags().GetBool("near-apostles")
		premium, _ := cmd.Flags().GetBool("premium")

		sat, err := grid.ParseScale(satRaw)
		if err != nil {
			return eris.Wrap(err, "datasets create")
		}
		loy, err := grid.ParseScale(loyRaw)
		if err != nil {
			return eris.Wrap(err, "datasets create")
		}

		mid := grid.DefaultMidpoint(sat, loy)
		if midSat > 0 {
			mid.Sat = midSat
		}
		if midLoy > 0 {
			mid.Loy = midLoy
		}
		if err := grid.ValidateMidpoint(sat, loy, mid); err != nil {
			return eris.Wrap(err, "datasets create")
		}
		if _, err := grid.NewZones(sat, loy, mid, apostles, terrorists); err != nil {
			return eris.Wrap(err, "datasets create")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ds, err := st.CreateDataset(ctx, model.Dataset{
			Name:               args[0],
			SatisfactionScale:  sat.String(),
			LoyaltyScale:       loy.String(),
			Midpoint:           mid,
			ApostlesZoneSize:   apostles,
			TerroristsZoneSize: terrorists,
			ShowSpecialZones:   special,
			ShowNearApostles:   nearApostles,
			Premium:            premium,
		})
		if err != nil {
			return eris.Wrap(err, "datasets create")
		}

		zap.L().Info("dataset created",
			zap.String("dataset_id", ds.ID),
			zap.String("name", ds.Name),
			zap.String("satisfaction_scale", ds.SatisfactionScale),
			zap.String("loyalty_scale", ds.LoyaltyScale),
		)
		fmt.Println(ds.ID)
		return nil
	},
}

// -- datasets show --

var datasetsShowCmd = &cobra.Command{
	Use:   "show <dataset-id>",
	Short: "Show a dataset as JSON",
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
			return eris.Wrap(err, "datasets show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ds)
	},
}

// -- datasets delete --

var datasetsDeleteCmd = &cobra.Command{
	Use:   "delete <dataset-id>",
	Short: "Delete a dataset with its customers and runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteDataset(ctx, args[0]); err != nil {
			return eris.Wrap(err, "datasets delete")
		}

		zap.L().Info("dataset deleted", zap.String("dataset_id", args[0]))
		return nil
	},
}

func init() {
	datasetsCreateCmd.Flags().String("satisfaction-scale", "1-5", "satisfaction scale, e.g. 1-5, 1-7, 0-10")
	datasetsCreateCmd.Flags().String("loyalty-scale", "1-5", "loyalty scale, e.g. 1-5, 1-7, 0-10")
	datasetsCreateCmd.Flags().Float64("midpoint-sat", 0, "satisfaction midpoint (default: scale center)")
	datasetsCreateCmd.Flags().Float64("midpoint-loy", 0, "loyalty midpoint (default: scale center)")
	datasetsCreateCmd.Flags().Int("apostles-zone", 1, "apostles zone size in cells")
	datasetsCreateCmd.Flags().Int("terrorists-zone", 1, "terrorists zone size in cells")
	datasetsCreateCmd.Flags().Bool("special-zones", false, "enable apostles/terrorists zone analysis")
	datasetsCreateCmd.Flags().Bool("near-apostles", false, "enable the near-apostles ring (needs special zones)")
	datasetsCreateCmd.Flags().Bool("premium", false, "mark the dataset as premium tier")

	datasetsCmd.AddCommand(datasetsListCmd)
	datasetsCmd.AddCommand(datasetsCreateCmd)
	datasetsCmd.AddCommand(datasetsShowCmd)
	datasetsCmd.AddCommand(datasetsDeleteCmd)
	rootCmd.AddCommand(datasetsCmd)
}

// formatDatasetsList writes a tabular list of datasets to w.
func formatDatasetsList(out io.Writer, datasets []model.Dataset) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSCALES\tMIDPOINT\tCUSTOMERS\tPREMIUM\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t--------\t---------\t-------\t-------")

	for _, d := range datasets {
		name := d.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		premium := ""
		if d.Premium {
			premium = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s/%s\t%.1f/%.1f\t%d\t%s\t%s\n",
			truncateID(d.ID),
			name,
			d.SatisfactionScale,
			d.LoyaltyScale,
			d.Midpoint.Sat,
			d.Midpoint.Loy,
			d.CustomerCount,
			premium,
			d.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
