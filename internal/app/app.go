package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AleksKim19/testvideospkbot/internal/api"
	"github.com/AleksKim19/testvideospkbot/internal/bot"
	"github.com/AleksKim19/testvideospkbot/internal/catalog"
	"github.com/AleksKim19/testvideospkbot/internal/config"
	"github.com/AleksKim19/testvideospkbot/internal/services"
)

// Application owns the catalog and every component that reads or
// refreshes it. Its lifetime is the lifetime of the catalog.
type Application struct {
	cfg        *config.Config
	log        zerolog.Logger
	store      *catalog.Store
	scanner    *services.MediaScanner
	reconciler *services.Reconciler
	refresher  *services.Refresher
	server     *api.Server
	bot        *bot.Bot
}

func NewApplication(cfg *config.Config, log zerolog.Logger) (*Application, error) {
	store := catalog.NewStore()
	scanner := services.NewMediaScanner(cfg.VideosDir, cfg.VideoExtensions)
	if cfg.CreateVideosDir {
		if err := scanner.EnsureDir(); err != nil {
			return nil, err
		}
	}

	reconciler := services.NewReconciler(store, scanner, services.ReconcilerOptions{
		URLPrefix:        cfg.VideosURLPrefix,
		KeepOnMissingDir: cfg.KeepCatalogOnMissingDir,
	}, log)
	refresher := services.NewRefresher(reconciler, cfg.RefreshInterval, cfg.WatchDir, log)

	server := api.NewServer(store, refresher, api.Options{
		Production:      cfg.IsProduction(),
		VideosDir:       cfg.VideosDir,
		VideosURLPrefix: cfg.VideosURLPrefix,
		PublicDir:       cfg.PublicDir,
	}, log)

	a := &Application{
		cfg:        cfg,
		log:        log,
		store:      store,
		scanner:    scanner,
		reconciler: reconciler,
		refresher:  refresher,
		server:     server,
	}

	if cfg.BotEnabled() {
		b, err := bot.New(cfg.TelegramBotToken, refresher, cfg.WebAppURL, cfg.VideoExtensions, log)
		if err != nil {
			log.Error().Err(err).Msg("telegram bot disabled")
		} else {
			a.bot = b
		}
	} else {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, telegram bot disabled")
	}

	return a, nil
}

func (a *Application) Store() *catalog.Store {
	return a.store
}

// Load performs the startup pass that fills the empty catalog.
func (a *Application) Load(ctx context.Context) error {
	res, err := a.reconciler.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load videos: %w", err)
	}
	a.log.Info().
		Int("videos", res.Total).
		Str("dir", a.scanner.Dir()).
		Msg("videos loaded")
	return nil
}

// Start loads the catalog, starts the background services and serves HTTP
// until ctx is cancelled.
func (a *Application) Start(ctx context.Context) error {
	if err := a.Load(ctx); err != nil {
		// not fatal: the refresher retries on its first tick
		a.log.Error().Err(err).Msg("initial load failed")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	a.startBackgroundServices(ctx, &wg)

	a.log.Info().
		Str("addr", a.cfg.Addr()).
		Str("videos_dir", a.cfg.VideosDir).
		Msg("drop video files into the videos directory to publish them")

	err := a.server.Run(ctx, a.cfg.Addr(), a.cfg.ShutdownTimeout)
	cancel()
	wg.Wait()
	return err
}

func (a *Application) startBackgroundServices(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.refresher.Run(ctx); err != nil {
			a.log.Error().Err(err).Msg("refresher stopped")
		}
	}()

	if a.bot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.bot.Run(ctx)
		}()
	}
}
