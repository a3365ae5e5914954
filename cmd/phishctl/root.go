package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"phish_backend/internal/platform/config"
	platformlog "phish_backend/internal/platform/log"
)

// NewRootCmd creates the root command for phishctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishctl",
		Short: "Phishing detection from the command line",
		Long: `phishctl runs phishing checks in process with the same configuration,
stores and detection methods as the server, and issues API tokens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (default: phish.yaml in current or XDG config directory)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewCapabilitiesCmd())
	cmd.AddCommand(NewTokenCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration selected by the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// setupLogger logs to stderr so stdout stays machine readable.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose = false
	}
	var w io.Writer = cmd.ErrOrStderr()
	logger := platformlog.New(w, cfg.Log.JSON, verbose || cfg.Log.Verbose)
	slog.SetDefault(logger)
	return logger
}
