package main

import (
	"context"
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/appstate"
	"github.com/ichi0g0y/luckydraw/internal/backend"
	"github.com/ichi0g0y/luckydraw/internal/dispatcher"
	"github.com/ichi0g0y/luckydraw/internal/env"
	"github.com/ichi0g0y/luckydraw/internal/localdb"
	"github.com/ichi0g0y/luckydraw/internal/share"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/shared/paths"
	"github.com/ichi0g0y/luckydraw/internal/webserver"
	"go.uber.org/zap"
)

// prepare loads .env first, since DATA_DIR and DEBUG_MODE decide where the database lives
// and how much is logged.
func prepare() error {
	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	if err := paths.EnsureDataDirs(); err != nil {
		return fmt.Errorf("failed to ensure data directories: %w", err)
	}
	if _, err := localdb.SetupDB(paths.GetDBPath()); err != nil {
		return fmt.Errorf("failed to setup database: %w", err)
	}
	return nil
}

type app struct {
	backend    *backend.Backend
	store      *appstate.Store
	dispatcher *dispatcher.Dispatcher
	server     *webserver.Server
}

// newApp wires the share pipeline, the session store and the HTTP surface.
func newApp(ctx context.Context, cfg env.EnvValue) (*app, error) {
	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := appstate.NewStore()
	if err := store.Load(); err != nil {
		// 読めない設定は初期値のまま起動する
		logger.Warn("Failed to load saved configurations", zap.Error(err))
	}

	resolver := share.NewResolver(b.Client)
	hub := webserver.NewWSHub()
	d := dispatcher.New(resolver, store, hub)

	srv := webserver.NewServer(webserver.Config{
		Store:        store,
		Serializer:   share.NewSerializer(b.Client, cfg.UploadConcurrency),
		Resolver:     resolver,
		Dispatcher:   d,
		Client:       b.Client,
		Blobs:        b.Blobs,
		Hub:          hub,
		ShareBaseURL: cfg.ShareBaseURL,
		AppScheme:    cfg.AppScheme,
	})

	return &app{backend: b, store: store, dispatcher: d, server: srv}, nil
}

func (a *app) launch(rawURL string) {
	if _, ok := a.dispatcher.Launch(rawURL); !ok {
		logger.Info("Launch URL has no share reference", zap.String("url", rawURL))
		return
	}
	logger.Info("Loading shared content from launch URL", zap.String("url", rawURL))
}

func (a *app) close() {
	if err := a.backend.Close(); err != nil {
		logger.Warn("Failed to close share store", zap.Error(err))
	}
}
