package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "troom-cli",
		Short: "troom CLI tool",
		Long: `troom-cli inspects a troom chat relay.

Available commands:
  topics     Explore the event bus topics the server publishes
  health     Probe a running server
  version    Print the CLI version

Use "troom-cli [command] --help" for more information about a specific command.`,
		SilenceUsage: true,
	}
	root.AddCommand(newTopicsCmd(), newHealthCmd(), newVersionCmd())
	return root
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
