package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvdlevanon/my-collection-sub000/internal/cache"
	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/config"
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
	"github.com/dvdlevanon/my-collection-sub000/internal/prefs"
	"github.com/dvdlevanon/my-collection-sub000/internal/push"
	"github.com/dvdlevanon/my-collection-sub000/internal/ui"
)

// Options configure the application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/mycollection/prefs.toml
	Server     string // overrides the configured server when set
	PollEvery  int    // seconds; zero uses the configured interval
}

// Run boots the terminal UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if server := strings.TrimSpace(opts.Server); server != "" {
		cfg.Server = server
	}

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Path:   cfg.LogPath(),
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	store := prefs.Open(prefsPath)

	client, err := collection.NewClient(cfg.Server)
	if err != nil {
		return fmt.Errorf("init collection client: %w", err)
	}
	lib := library.New(client, cache.New(), logging.NewComponentLogger(logger, "library"))

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	logger.Info("starting",
		logging.String("server", client.BaseURL().String()),
		logging.Duration("poll_interval", interval),
	)

	StartPoller(ctx, lib, interval, logging.NewComponentLogger(logger, "poller"))
	StartPushListener(ctx, &push.Listener{
		URL:    client.PushURL(),
		Sink:   lib.ApplyQueueMetadata,
		Logger: logging.NewComponentLogger(logger, "push"),
	}, logger)

	return ui.Run(ui.Options{
		Context: ctx,
		Library: lib,
		Prefs:   store,
		Config:  cfg,
		Logger:  logger,
	})
}
