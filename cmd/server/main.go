package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/undergrid/stagehand/internal/auth"
	"github.com/undergrid/stagehand/internal/config"
	"github.com/undergrid/stagehand/internal/platform/logger"
)

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stagehand",
		Short: "Stagehand: async image generation tracking and session playback",
		Long: "Stagehand tracks asynchronous generation tasks against a Stable " +
			"Diffusion WebUI compatible endpoint, with live previews, and drives " +
			"per-session sequential audio playback with announcement interrupts.",
		SilenceUsage: true,
	}

	root.AddCommand(buildServeCommand(), buildMigrateCommand(), buildTokenCommand())
	return root
}

func buildServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)

	app, err := newApplication(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(app.setupRouter())
}

func buildMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger.Setup(cfg.Server)
			return runMigrations(cfg, args[0])
		},
	}
}

func buildTokenCommand() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cfg.Auth.Enabled() {
				return fmt.Errorf("authentication is not configured, set auth.jwt_secret")
			}

			tokens, err := auth.NewTokenService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to create token service: %w", err)
			}

			token, err := tokens.Mint(subject, ttl)
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")

	return cmd
}
