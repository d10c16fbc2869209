package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/logstream-io/logstream/internal/config"
	"github.com/logstream-io/logstream/internal/database"
	"github.com/logstream-io/logstream/internal/observability"
	"github.com/logstream-io/logstream/internal/queue"
	"github.com/logstream-io/logstream/internal/repository"
	"github.com/logstream-io/logstream/internal/worker"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("service", "logworker").Logger()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	q := queue.New(pool, queue.Options{
		Lease:       time.Duration(cfg.Queue.LeaseSeconds) * time.Second,
		MaxAttempts: cfg.Queue.MaxAttempts,
	}, logger)

	opts := worker.Options{
		Channel:      cfg.Queue.Channel,
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: time.Duration(cfg.Queue.PollMillis) * time.Millisecond,
		NewRelic:     nrApp,
	}
	if cfg.Ingest.ValidateSource {
		opts.Sources = repository.NewApplicationRepository(pool)
	}

	w := worker.New(q, repository.NewLogRepository(pool), opts, logger)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker exited")
		os.Exit(1)
	}
	logger.Info().Msg("worker stopped")
}
