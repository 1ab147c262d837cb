package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/nectar-cli/internal/config"
	"github.com/sells-group/nectar-cli/internal/pipeline"
	"github.com/sells-group/nectar-cli/internal/survey"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve count units only and write the count_units table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		applyOutputFlags(cmd)
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		in, err := pipeline.LoadInputs(ctx, config.InputsConfig{
			Observations: cfg.Inputs.Observations,
			Catalog:      cfg.Inputs.Catalog,
		})
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		obs, stats := pipeline.New(cfg, nil).Resolve(in)
		paths, err := pipeline.WriteTables(cfg.Output.Dir, cfg.Output.Format, []survey.Rendered{survey.RenderObservations(obs)})
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		fmt.Fprintf(os.Stdout, "known=%d assumed=%d bracketed=%d rows=%d\n", stats.Known, stats.Assumed, stats.Bracketed, stats.Rows)
		for _, p := range paths {
			fmt.Fprintln(os.Stdout, p)
		}
		return nil
	},
}

var nectarCmd = &cobra.Command{
	Use:   "nectar",
	Short: "Convert nectar samples to calories per flower",
	Long:  "Converts the nectar sample table to calories per flower. Species observed in inputs.observations are included even without samples so their fallback source is reported.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		applyOutputFlags(cmd)
		if cfg.Inputs.Nectar == "" {
			return eris.New("nectar: inputs.nectar is required")
		}

		in, err := pipeline.LoadInputs(ctx, config.InputsConfig{
			Observations: cfg.Inputs.Observations,
			Nectar:       cfg.Inputs.Nectar,
			Catalog:      cfg.Inputs.Catalog,
		})
		if err != nil {
			return eris.Wrap(err, "nectar")
		}

		p := pipeline.New(cfg, nil)
		var species []string
		if len(in.Observations) > 0 {
			obs, _ := p.Resolve(in)
			species = pipeline.CaloriesSpecies(obs)
		}
		rows := p.Nectar(in, species)

		paths, err := pipeline.WriteTables(cfg.Output.Dir, cfg.Output.Format, []survey.Rendered{survey.RenderCaloriesPerFlower(rows)})
		if err != nil {
			return eris.Wrap(err, "nectar")
		}
		for _, path := range paths {
			fmt.Fprintln(os.Stdout, path)
		}
		return nil
	},
}

func init() {
	addOutputFlags(resolveCmd)
	addOutputFlags(nectarCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(nectarCmd)
}
