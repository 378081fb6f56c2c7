package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	var writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after the config file, ONLINELEARN_* environment
variables and flags have been applied.

Examples:
  onlinedemo config
  onlinedemo config --optimizer ftpl --write onlinelearn.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if writePath != "" {
				if err := g.cfg.SaveToFile(writePath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", writePath)
				return nil
			}
			data, err := g.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&writePath, "write", "", "write the configuration to this file instead of stdout")

	return cmd
}
