package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"phish_backend/internal/app/di"
	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/transport/http/dto"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Classify a page",
		Long: `Classify a page with the settings stored for --identity.
The screenshot defaults to a fresh render of the URL.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheckCmd,
	}

	cmd.Flags().StringP("title", "t", "", "Page title")
	cmd.Flags().StringP("screenshot", "s", "", "Screenshot file or URL")
	cmd.Flags().StringP("identity", "i", "cli", "Identity whose settings and cache are used")
	cmd.Flags().Bool("bypass-cache", false, "Recompute even when a verdict is cached")

	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg)

	title, _ := cmd.Flags().GetString("title")
	screenshot, _ := cmd.Flags().GetString("screenshot")
	identity, _ := cmd.Flags().GetString("identity")
	bypass, _ := cmd.Flags().GetBool("bypass-cache")
	if identity == "" {
		return errors.New("identity must not be empty")
	}

	ctx := cmd.Context()
	app, err := di.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	settings, err := app.Settings.Resolve(ctx, identity)
	if err != nil {
		return err
	}
	if bypass {
		settings.BypassCache = true
	}

	res, err := app.Detection.Check(ctx, identity, entity.DetectionRequest{
		URL:           args[0],
		ScreenshotURL: screenshot,
		PageTitle:     title,
		Identity:      identity,
	}, settings)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	return writeJSON(cmd, dto.FromResult(res))
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
