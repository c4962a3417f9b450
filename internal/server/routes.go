package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Trigger-event ingestion (rate limited per source)
	s.echo.POST("/events", s.handleIngestEvent)

	// Animation library
	s.echo.GET("/api/categories", s.handleListCategories)
	s.echo.POST("/api/categories", s.handleAddCategory)
	s.echo.PUT("/api/categories/:id", s.handleRenameCategory)
	s.echo.DELETE("/api/categories/:id", s.handleDeleteCategory)
	s.echo.POST("/api/categories/:id/animations", s.handleAddAnimation)
	s.echo.GET("/api/animations/:id", s.handleGetAnimation)
	s.echo.PUT("/api/animations/:id", s.handleUpdateAnimation)
	s.echo.DELETE("/api/animations/:id", s.handleDeleteAnimation)
	s.echo.POST("/api/animations/:id/variants", s.handleAddVariant)
	s.echo.DELETE("/api/animations/:id/variants/:variantID", s.handleDeleteVariant)
	s.echo.PUT("/api/animations/:id/chain", s.handleSetChainedCommands)

	// Playback control
	s.echo.POST("/api/animations/:id/play", s.handleManualPlay)
	s.echo.POST("/api/animations/:id/clear-cooldown", s.handleClearCooldown)
	s.echo.POST("/api/stop", s.handleStopAll)
	s.echo.GET("/api/status", s.handleStatus)

	// Settings, user groups and per-user throttle config
	s.echo.GET("/api/settings", s.handleGetSettings)
	s.echo.PUT("/api/settings", s.handleUpdateSettings)
	s.echo.POST("/api/groups", s.handleUpsertGroup)
	s.echo.PUT("/api/groups/:id", s.handleUpsertGroup)
	s.echo.DELETE("/api/groups/:id", s.handleDeleteGroup)
	s.echo.PUT("/api/users", s.handleUpsertUser)

	// Overlay websocket (OBS browser source)
	s.echo.GET("/ws/overlay", s.handleOverlaySocket)
}
