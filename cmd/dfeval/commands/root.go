package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:           "dfeval",
		Short:         "Compute derived table columns from expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "conf", "c", "", "config file path (default: search ./dfeval.yaml, $HOME/.dfeval)")

	rootCmd.AddCommand(
		newEvalCommand(&opts),
		newApplyCommand(&opts),
		newOrderCommand(&opts),
		newFunctionsCommand(&opts),
		newVersionCommand(),
	)

	return rootCmd
}
