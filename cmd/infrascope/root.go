package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/infrascope/internal/cli"
	"github.com/aretw0/infrascope/internal/config"
	"github.com/spf13/cobra"
)

var (
	loader = config.NewLoader()
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "infrascope",
	Short: "Infrascope analyzes infrastructure metrics reports",
	Long: `Infrascope reads a JSON metrics report, asks a language model for anomalies
and optimization recommendations, and writes a merged JSON artifact.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default .infrascope.yaml or ~/.config/infrascope/config.yaml)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "auto", "Log format: text, json, auto")
	flags.String("tools-dir", ".", "Directory the local tools read reports from")

	bindFlag(flags.Lookup("log-level"), "log.level")
	bindFlag(flags.Lookup("log-format"), "log.format")
	bindFlag(flags.Lookup("tools-dir"), "tools.dir")
}

// loadConfig resolves configuration and the logger for every command.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.WithConfigFile(path)
	}

	c, err := loader.Load()
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := cli.NewLogger(c)
	if err != nil {
		return err
	}
	if used := loader.ConfigFile(); used != "" {
		l.Debug("config loaded", "file", used)
	}

	cfg, logger = c, l
	return nil
}

// skipConfig replaces loadConfig for commands that must work with a broken
// or missing config file.
func skipConfig(*cobra.Command, []string) error { return nil }
