package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/infrascope/internal/cli"
	"github.com/aretw0/infrascope/internal/config"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Manage the analysis tools",
}

var toolsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Publish the analysis tools over MCP",
	Long: `Starts an MCP server exposing read_json_file, detect_anomalies and
propose_optimizations. Use --transport sse for remote clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.ServeTools(ctx, cfg, transport, cfg.Server.ToolsAddr, logger)
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsServeCmd)

	toolsServeCmd.Flags().String("transport", config.TransportStdio, "Transport: stdio, sse")
	toolsServeCmd.Flags().String("addr", ":8000", "Address for the sse transport")
	bindFlag(toolsServeCmd.Flags().Lookup("addr"), "server.tools_addr")
}
