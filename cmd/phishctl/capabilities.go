package main

import (
	"github.com/spf13/cobra"

	"phish_backend/internal/app/di"
	"phish_backend/internal/feature/detection/transport/http/dto"
)

// NewCapabilitiesCmd creates the capabilities command.
func NewCapabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List detection methods and decision strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := di.NewApp(cmd.Context(), cfg, setupLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return writeJSON(cmd, dto.FromCapabilities(app.Detection.Capabilities()))
		},
	}
}
