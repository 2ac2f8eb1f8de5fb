package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ichi0g0y/luckydraw/internal/env"
	"github.com/ichi0g0y/luckydraw/internal/localdb"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/version"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting luckydraw server", zap.String("version", version.String()))

	if err := prepare(); err != nil {
		logger.Fatal("Failed to prepare", zap.Error(err))
	}
	defer localdb.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, env.Value)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return app.server.Run(gctx, env.Value.ServerPort)
	})

	// 起動時に渡されたリンク（コールドスタート）
	if len(os.Args) > 1 {
		app.launch(os.Args[1])
	}

	logger.Info("Server started",
		zap.Int("port", env.Value.ServerPort),
		zap.String("webui", fmt.Sprintf("http://localhost:%d/", env.Value.ServerPort)),
		zap.String("share_base_url", env.Value.ShareBaseURL))

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Shutdown complete")
}
