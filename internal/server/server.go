// Package server exposes the ingestion endpoint and the log read API over
// HTTP.
package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/logstream-io/logstream/internal/config"
	"github.com/logstream-io/logstream/internal/model"
)

// Enqueuer hands raw submissions to the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, channel string, payload []byte) error
}

// LogReader serves the read side of the log record store.
type LogReader interface {
	ListNewerThan(ctx context.Context, since time.Time, limit int) ([]model.LogRecord, error)
	ListRecent(ctx context.Context, limit int) ([]model.LogRecord, error)
}

// SourceReader lists the known log source applications. Optional; the
// /sources route is registered only when a reader is provided.
type SourceReader interface {
	List(ctx context.Context) ([]model.Application, error)
}

// Server holds the Echo app and dependencies.
type Server struct {
	Echo     *echo.Echo
	Config   *config.Config
	enqueuer Enqueuer
	logs     LogReader
	sources  SourceReader
	log      zerolog.Logger
}

// New builds the Echo server and registers routes. The ingestion endpoint
// gets a bearer-token gate only when ingest.auth_token is configured;
// by default it stays open for machine-to-machine log shippers.
func New(cfg *config.Config, enqueuer Enqueuer, logs LogReader, sources SourceReader, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), middleware.Logger())
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.CORSAllowedOrigins,
		}))
	}

	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.Server.IdleTimeout) * time.Second

	s := &Server{Echo: e, Config: cfg, enqueuer: enqueuer, logs: logs, sources: sources, log: log}

	var ingestMW []echo.MiddlewareFunc
	if cfg.Ingest.AuthToken != "" {
		ingestMW = append(ingestMW, middleware.KeyAuth(func(key string, c echo.Context) (bool, error) {
			return key == cfg.Ingest.AuthToken, nil
		}))
	}
	e.POST("/ingest", s.handleIngest, ingestMW...)

	e.GET("/logs/new", s.handleNewLogs)
	e.GET("/logs", s.handleRecentLogs)
	e.GET("/healthz", s.handleHealth)
	if sources != nil {
		e.GET("/sources", s.handleSources)
	}

	return s
}

// Start starts the HTTP server. Blocks until the context is cancelled or
// the server fails.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()
	addr := ":" + s.Config.Server.Port
	return s.Echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
