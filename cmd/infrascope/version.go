package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/infrascope"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version number of infrascope",
	PersistentPreRunE: skipConfig,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "infrascope version %s\n", strings.TrimSpace(infrascope.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
