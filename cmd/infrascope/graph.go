package main

import (
	"fmt"

	"github.com/aretw0/infrascope/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:               "graph",
	Short:             "Export the pipeline graph",
	Long:              `Outputs a Mermaid diagram (graph TD) of the analysis steps and their routes.`,
	PersistentPreRunE: skipConfig,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
