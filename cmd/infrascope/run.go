package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/infrascope/internal/cli"
	"github.com/aretw0/infrascope/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze the metrics report once",
	Long: `Loads the report through the configured tools, detects anomalies, proposes
optimizations and writes the merged artifact to the output path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		quiet, _ := cmd.Flags().GetBool("quiet")
		showGraph, _ := cmd.Flags().GetBool("graph")

		out := cmd.OutOrStdout()
		if !quiet && term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(out)
		}

		_, err := cli.Execute(ctx, cli.RunOptions{
			Config: cfg,
			Logger: logger,
			Out:    out,
			Quiet:  quiet,
			Graph:  showGraph,
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("report", "rapport.json", "Name of the report file to analyze")
	flags.String("transport", "local", "Tool transport: local, sse, stdio")
	flags.String("tools-url", "http://localhost:8000/sse", "Tool server URL for the sse transport")
	flags.Bool("parallel", false, "Run anomaly detection and optimization proposal concurrently")
	flags.StringP("output", "o", "output.json", "Where to write the merged artifact")
	flags.String("provider", "mistral", "LLM provider: mistral, openai, gemini")
	flags.String("model", "", "Model name (provider default when empty)")
	flags.Bool("graph", false, "Print the pipeline graph with the run overlaid")
	flags.BoolP("quiet", "q", false, "Do not print the summary")

	bindFlag(flags.Lookup("report"), "report.name")
	bindFlag(flags.Lookup("transport"), "tools.transport")
	bindFlag(flags.Lookup("tools-url"), "tools.url")
	bindFlag(flags.Lookup("parallel"), "pipeline.parallel")
	bindFlag(flags.Lookup("output"), "output.path")
	bindFlag(flags.Lookup("provider"), "llm.provider")
	bindFlag(flags.Lookup("model"), "llm.model")
}
