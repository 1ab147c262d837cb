package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/store"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline run history",
	Long:  "Commands for listing runs, viewing one run and its artifacts, and listing its undefined plant rows.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{Status: model.RunStatus(status), Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its stage artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		arts, err := st.ListArtifacts(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*model.Run
			Artifacts []model.Artifact `json:"artifacts"`
		}{run, arts})
	},
}

// -- runs missing --

var runsMissingCmd = &cobra.Command{
	Use:   "missing <run-id>",
	Short: "List plant rows whose flower or calorie estimate is undefined",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		species, _ := cmd.Flags().GetString("species")
		limit, _ := cmd.Flags().GetInt("limit")

		plants, err := st.ListPlantCalories(ctx, args[0], store.PlantFilter{
			MissingOnly: true,
			Species:     taxa.NormalizeCode(species),
			Limit:       limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs missing")
		}

		if len(plants) == 0 {
			fmt.Fprintln(os.Stderr, "No undefined rows.")
			return nil
		}

		formatMissing(os.Stdout, plants)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsMissingCmd.Flags().String("species", "", "only rows of this species or calories species")
	runsMissingCmd.Flags().Int("limit", 1000, "max number of rows to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsMissingCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tOBSERVATIONS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t------------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		obs := r.Inputs["observations"]
		if len(obs) > 40 {
			obs = "..." + obs[len(obs)-37:]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Status,
			obs,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatMissing writes undefined plant rows with their reasons to w.
func formatMissing(out io.Writer, plants []model.PlantCalories) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROW\tSPECIES\tCALORIES_SPECIES\tSITE\tUNIT\tBOUND\tFLOWERS\tREASON")
	for _, p := range plants {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.RowID,
			p.SpeciesCode,
			p.SpeciesForCalories,
			p.Site,
			p.CountUnit,
			p.Bound,
			p.NumFlowersEstimate,
			p.MissingReason,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
