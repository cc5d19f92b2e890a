package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the Healthfiti admin CLI. Subcommands (auth,
// bootstrap, tenant) are attached here.
var rootCmd = &cobra.Command{
	Use:           "healthfiti",
	Short:         "Healthfiti admin CLI",
	Long:          "Administrative utilities for Healthfiti (dev tokens, tenant bootstrap, tenant lifecycle).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
