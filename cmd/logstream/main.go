package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/logstream-io/logstream/internal/config"
	"github.com/logstream-io/logstream/internal/database"
	"github.com/logstream-io/logstream/internal/observability"
	"github.com/logstream-io/logstream/internal/queue"
	"github.com/logstream-io/logstream/internal/repository"
	"github.com/logstream-io/logstream/internal/server"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("service", "logstream").Logger()

	// Optional in development; env vars win in production.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(ctx, cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
	}

	nrApp, err := observability.NewApplication(cfg.Observability)
	if err != nil {
		logger.Fatal().Err(err).Msg("observability")
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL, database.PoolOptions{
		Logger:   &logger,
		NewRelic: nrApp != nil,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("database pool")
	}
	defer pool.Close()

	q := queue.New(pool, queue.Options{}, logger)
	logRepo := repository.NewLogRepository(pool)
	appRepo := repository.NewApplicationRepository(pool)

	srv := server.New(cfg, q, logRepo, appRepo, logger)
	logger.Info().Str("port", cfg.Server.Port).Msg("starting producer server")
	if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
