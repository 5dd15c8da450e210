package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AleksKim19/testvideospkbot/internal/app"
	"github.com/AleksKim19/testvideospkbot/internal/catalog"
	"github.com/AleksKim19/testvideospkbot/internal/config"
	"github.com/AleksKim19/testvideospkbot/internal/logger"
	"github.com/AleksKim19/testvideospkbot/internal/services"
)

type flags struct {
	dir  string
	port int
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:          "videobot",
		Short:        "Video catalog service with a Telegram front-end",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringVar(&f.dir, "dir", "", "videos directory (overrides VIDEOS_DIR)")
	root.PersistentFlags().IntVar(&f.port, "port", 0, "HTTP port (overrides PORT)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API, the refresher and the bot",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), f)
			},
		},
		&cobra.Command{
			Use:   "scan",
			Short: "Scan the videos directory once and print the catalog as JSON",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runScan(cmd, f)
			},
		},
	)
	return root
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if f.dir != "" {
		cfg.VideosDir = f.dir
	}
	if f.port != 0 {
		cfg.HTTPPort = f.port
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := application.Start(ctx); err != nil {
		log.Error().Err(err).Msg("application stopped with error")
		return err
	}

	log.Info().Msg("application stopped")
	return nil
}

func runScan(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	store := catalog.NewStore()
	scanner := services.NewMediaScanner(cfg.VideosDir, cfg.VideoExtensions)
	reconciler := services.NewReconciler(store, scanner, services.ReconcilerOptions{
		URLPrefix: cfg.VideosURLPrefix,
	}, zerolog.Nop())

	res, err := reconciler.Load(cmd.Context())
	if err != nil {
		return err
	}
	if res.DirMissing {
		fmt.Fprintf(cmd.ErrOrStderr(), "videos directory %q does not exist\n", cfg.VideosDir)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(store.List(""))
}
