// Package app provides the command tree for the mlgit registry CLI.
package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:               "mlgit",
	DisableAutoGenTag: true,
	Short:             "Model registry on a git hosting repository",
	Long: `mlgit stores and retrieves machine-learning model binaries, versioned
metadata, and tabular backtest results in a git hosting repository laid
out as a lightweight model registry.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			slog.Error("Error displaying help", "error", err)
		}
	},
}

// NewRootCmd creates the root command for the mlgit CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")
	rootCmd.PersistentFlags().String("token", "", "Access token (overrides the configured token environment variable)")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		slog.Error("Error binding config flag", "error", err)
	}
	if err := viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token")); err != nil {
		slog.Error("Error binding token flag", "error", err)
	}

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(artifactCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("mlgit " + Version)
	},
}
