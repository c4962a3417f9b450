package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/fiercekittenz/gifbot/internal/apperrors"
)

// handleManualPlay is the dashboard test button: fire an animation by id
// as a priority request, skipping eligibility checks.
func (s *Server) handleManualPlay(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		User string `json:"user"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.User == "" {
		req.User = s.settings.Get().BroadcasterName
	}

	if err := s.dispatcher.TriggerManual(c.Request().Context(), id, req.User); err != nil {
		return apperrors.FromDomain(err, "failed to trigger animation")
	}
	slog.Info("Manual play triggered", "animation_id", id.String(), "user", req.User)
	return c.JSON(202, map[string]string{"status": "queued"})
}

func (s *Server) handleClearCooldown(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if s.library.FindByID(id) == nil {
		return apperrors.NotFoundError("animation not found").WithField("id", id.String())
	}

	s.ledger.ClearCooldown(id)
	return c.JSON(200, map[string]string{"status": "ok"})
}

// handleStopAll drops every queued request and force-stops every active
// animation across all layers. The panic button.
func (s *Server) handleStopAll(c echo.Context) error {
	for _, sched := range s.schedulers {
		sched.StopAll()
	}
	return c.JSON(200, map[string]string{"status": "stopped"})
}

func (s *Server) handleStatus(c echo.Context) error {
	layers := make(map[string]any, len(s.schedulers))
	for layer, sched := range s.schedulers {
		layers[layer] = map[string]any{
			"queue_depth": sched.QueueDepth(),
			"active":      sched.ActiveCommands(),
		}
	}

	return c.JSON(200, map[string]any{
		"layers":          layers,
		"overlay_clients": s.hub.ClientCount(),
	})
}
