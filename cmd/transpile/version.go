package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the transpiler version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "transpile %s\n", config.GetVersionString())
	},
}
