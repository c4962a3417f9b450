// Package server is the HTTP boundary: dashboard API for the animation
// library and settings, trigger-event ingestion, the overlay websocket
// endpoint and observability routes. All trigger semantics live below it;
// handlers validate, translate errors and delegate.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fiercekittenz/gifbot/internal/apperrors"
	"github.com/fiercekittenz/gifbot/internal/config"
	"github.com/fiercekittenz/gifbot/internal/dispatch"
	"github.com/fiercekittenz/gifbot/internal/ledger"
	"github.com/fiercekittenz/gifbot/internal/library"
	"github.com/fiercekittenz/gifbot/internal/overlay"
	"github.com/fiercekittenz/gifbot/internal/scheduler"
	"github.com/fiercekittenz/gifbot/internal/settings"
	"github.com/fiercekittenz/gifbot/internal/storage"
)

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	library    *library.Library
	settings   *settings.Manager
	ledger     *ledger.Ledger
	dispatcher *dispatch.Dispatcher
	schedulers map[string]*scheduler.Scheduler
	hub        *overlay.Hub

	ingestLimiter *ingestRateLimiter
	startTime     time.Time

	// Optional backends for readiness probes. Either may be nil.
	db          *storage.PostgresStore
	redisClient *goredis.Client
}

func NewServer(
	cfg *config.Config,
	lib *library.Library,
	settingsMgr *settings.Manager,
	led *ledger.Ledger,
	dispatcher *dispatch.Dispatcher,
	schedulers map[string]*scheduler.Scheduler,
	hub *overlay.Hub,
	db *storage.PostgresStore,
	redisClient *goredis.Client,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:          e,
		config:        cfg,
		library:       lib,
		settings:      settingsMgr,
		ledger:        led,
		dispatcher:    dispatcher,
		schedulers:    schedulers,
		hub:           hub,
		ingestLimiter: newIngestRateLimiter(cfg.EventRateLimit, cfg.EventRateBurst),
		startTime:     time.Now(),
		db:            db,
		redisClient:   redisClient,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
