package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/botforge/botforge/internal/config"
	"github.com/botforge/botforge/internal/infrastructure/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.GetLogger()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog := logger.GetLogger()
		bootLog.Fatal().Err(err).Msg("failed to configure logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise application")
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped")
}
