package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/pipeline"
	"github.com/sells-group/nectar-cli/internal/sites"
	"github.com/sells-group/nectar-cli/internal/store"
	"github.com/sells-group/nectar-cli/internal/survey"
)

// GeoJSONName is the site layer written by the sites command.
const GeoJSONName = "site_calories.geojson"

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Total calories per site and year and export them as GeoJSON",
	Long:  "Totals plant calories per site and year from a stored run (--run) or a fresh in-memory run of the configured inputs, writes the site_summary table and joins it to the inputs.sites shapefile as a GeoJSON FeatureCollection.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		applyOutputFlags(cmd)
		if err := cfg.Validate("sites"); err != nil {
			return err
		}

		runID, _ := cmd.Flags().GetString("run")
		plants, err := sitePlants(ctx, runID)
		if err != nil {
			return eris.Wrap(err, "sites")
		}

		layer, err := sites.LoadShapefile(cfg.Inputs.Sites)
		if err != nil {
			return eris.Wrap(err, "sites")
		}

		summaries := sites.Summarize(plants)
		paths, err := pipeline.WriteTables(cfg.Output.Dir, cfg.Output.Format, []survey.Rendered{sites.Render(summaries)})
		if err != nil {
			return eris.Wrap(err, "sites")
		}

		geoPath := filepath.Join(cfg.Output.Dir, GeoJSONName)
		if err := sites.WriteGeoJSON(geoPath, sites.FeatureCollection(summaries, layer)); err != nil {
			return eris.Wrap(err, "sites")
		}

		for _, p := range append(paths, geoPath) {
			fmt.Fprintln(os.Stdout, p)
		}
		return nil
	},
}

// sitePlants loads the plant rows of a stored run, or computes them from
// the configured inputs without persisting anything.
func sitePlants(ctx context.Context, runID string) ([]model.PlantCalories, error) {
	if runID != "" {
		st, err := requireStore(ctx)
		if err != nil {
			return nil, err
		}
		defer st.Close() //nolint:errcheck
		return st.ListPlantCalories(ctx, runID, store.PlantFilter{})
	}

	in, err := pipeline.LoadInputs(ctx, cfg.Inputs)
	if err != nil {
		return nil, err
	}
	local := *cfg
	local.Output.Dir = ""
	res, err := pipeline.New(&local, nil).Run(ctx, in)
	if err != nil {
		return nil, err
	}
	return res.Plants, nil
}

func init() {
	addOutputFlags(sitesCmd)
	sitesCmd.Flags().String("run", "", "stored run ID to summarize (default: run the pipeline in memory)")
	rootCmd.AddCommand(sitesCmd)
}
