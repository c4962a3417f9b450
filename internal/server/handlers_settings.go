package server

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fiercekittenz/gifbot/internal/apperrors"
	"github.com/fiercekittenz/gifbot/internal/domain"
)

func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(200, s.settings.Get())
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	var updated domain.Settings
	if err := c.Bind(&updated); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if updated.GlobalCooldownSeconds < 0 {
		return apperrors.ValidationError("globalCooldownSeconds must not be negative")
	}
	if updated.AnimationDelaySeconds < 0 {
		return apperrors.ValidationError("animationDelaySeconds must not be negative")
	}

	if err := s.settings.Update(c.Request().Context(), updated); err != nil {
		return apperrors.InternalError("failed to update settings", err)
	}
	return c.JSON(200, s.settings.Get())
}

// handleUpsertGroup serves both POST /api/groups (create) and
// PUT /api/groups/:id (replace). The id in the path wins over the body.
func (s *Server) handleUpsertGroup(c echo.Context) error {
	var group domain.UserGroup
	if err := c.Bind(&group); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if strings.TrimSpace(group.Name) == "" {
		return apperrors.ValidationError("group name must not be empty")
	}

	if raw := c.Param("id"); raw != "" {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}
		group.ID = id
	}

	id, err := s.settings.UpsertGroup(c.Request().Context(), group)
	if err != nil {
		return apperrors.FromDomain(err, "failed to upsert group")
	}
	return c.JSON(200, map[string]string{"id": id.String()})
}

func (s *Server) handleDeleteGroup(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.settings.DeleteGroup(c.Request().Context(), id); err != nil {
		return apperrors.FromDomain(err, "failed to delete group")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleUpsertUser(c echo.Context) error {
	var user domain.UserConfig
	if err := c.Bind(&user); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if strings.TrimSpace(user.Name) == "" {
		return apperrors.ValidationError("user name must not be empty")
	}
	if user.ThrottleSeconds < 0 {
		return apperrors.ValidationError("throttleSeconds must not be negative")
	}

	if err := s.settings.UpsertUser(c.Request().Context(), user); err != nil {
		return apperrors.InternalError("failed to upsert user", err)
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}
