package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/nectar-cli/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all four stages over the configured inputs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		applyOutputFlags(cmd)
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		in, err := pipeline.LoadInputs(ctx, cfg.Inputs)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		res, err := pipeline.New(cfg, st).Run(ctx, in)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		formatRunResult(os.Stdout, res)
		return nil
	},
}

// addOutputFlags registers the output overrides shared by stage commands.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "output directory (default from config)")
	cmd.Flags().String("format", "", "output format: csv or xlsx (default from config)")
}

func applyOutputFlags(cmd *cobra.Command) {
	if dir, _ := cmd.Flags().GetString("out"); dir != "" {
		cfg.Output.Dir = dir
	}
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Output.Format = format
	}
}

func init() {
	addOutputFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

// formatRunResult writes a short run report to w.
func formatRunResult(out io.Writer, res *pipeline.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if res.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", res.RunID)
	}
	_, _ = fmt.Fprintf(w, "Rows:\t%d\n", len(res.Observations))
	_, _ = fmt.Fprintf(w, "  Known unit:\t%d\n", res.UnitStats.Known)
	_, _ = fmt.Fprintf(w, "  Assumed unit:\t%d\n", res.UnitStats.Assumed)
	_, _ = fmt.Fprintf(w, "  Bracketed:\t%d\n", res.UnitStats.Bracketed)
	_, _ = fmt.Fprintf(w, "Flowers per unit:\t%d\n", len(res.Flowers.FlowersPerUnit))
	_, _ = fmt.Fprintf(w, "Calories per flower:\t%d\n", len(res.CaloriesPerFlower))
	_, _ = fmt.Fprintf(w, "Plants:\t%d\n", len(res.Plants))
	_, _ = fmt.Fprintf(w, "Missing:\t%d\n", len(res.Missing))
	for _, p := range res.Outputs {
		_, _ = fmt.Fprintf(w, "Wrote:\t%s\n", p)
	}
	_ = w.Flush()
}
