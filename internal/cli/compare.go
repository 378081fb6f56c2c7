package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/onlinelearn/core/parallel"
	"github.com/YuminosukeSato/onlinelearn/pkg/config"
)

func newCompareCmd(g *globalOptions) *cobra.Command {
	opts := &funcOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run the sinusoid task with FTRL-Proximal and FTPL side by side",
		Long: `Runs the func task once per optimizer kind, each with its own optimizer
instance, and prints both summaries. --optimizer is ignored.

Examples:
  onlinedemo compare --n 500
  onlinedemo compare --plot compare.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := runCompare(g.cfg, g.n, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				res.print(out)
			}

			if g.plotPath != "" {
				lines := []series{{name: "target", ys: results[0].targets}}
				for _, res := range results {
					lines = append(lines, series{name: res.optimizer, ys: res.predictions})
				}
				if err := savePlot(g.plotPath, "FTRL-Proximal vs FTPL", "t", "f", lines); err != nil {
					return err
				}
				fmt.Fprintf(out, "Plot saved as %s\n", g.plotPath)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&opts.xTrue, "x-true", 1.0, "parameter used to generate the target")
	cmd.Flags().Float64Var(&opts.xInit, "x-init", 0.5, "initial weight of the regressor")
	cmd.Flags().BoolVar(&opts.estimate, "estimate", false, "feed the closed-form gradient to the FTPL estimate hook")

	return cmd
}

// runCompare returns one result per optimizer kind, in the order ftrl, ftpl.
func runCompare(cfg *config.Config, n int, opts *funcOptions) ([]*funcResult, error) {
	kinds := []string{config.KindFTRL, config.KindFTPL}
	results := make([]*funcResult, len(kinds))

	err := parallel.ForEach(len(kinds), func(i int) error {
		c := *cfg
		c.Optimizer.Kind = kinds[i]
		res, err := runFunc(&c, n, opts)
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
