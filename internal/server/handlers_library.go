package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fiercekittenz/gifbot/internal/apperrors"
	"github.com/fiercekittenz/gifbot/internal/domain"
)

func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid UUID format").WithField(name, raw)
	}
	return id, nil
}

func (s *Server) handleListCategories(c echo.Context) error {
	return c.JSON(200, s.library.Categories())
}

func (s *Server) handleAddCategory(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	id, err := s.library.AddCategory(c.Request().Context(), req.Name)
	if err != nil {
		return apperrors.FromDomain(err, "failed to add category")
	}
	return c.JSON(201, map[string]string{"id": id.String()})
}

func (s *Server) handleRenameCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.library.RenameCategory(c.Request().Context(), id, req.Name); err != nil {
		return apperrors.FromDomain(err, "failed to rename category")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.library.DeleteCategory(c.Request().Context(), id); err != nil {
		return apperrors.FromDomain(err, "failed to delete category")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleGetAnimation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	animation := s.library.FindByID(id)
	if animation == nil {
		return apperrors.NotFoundError("animation not found").WithField("id", id.String())
	}
	return c.JSON(200, animation)
}

func (s *Server) handleAddAnimation(c echo.Context) error {
	categoryID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var animation domain.Animation
	if err := c.Bind(&animation); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	id, err := s.library.AddAnimation(c.Request().Context(), categoryID, &animation)
	if err != nil {
		return apperrors.FromDomain(err, "failed to add animation")
	}
	return c.JSON(201, map[string]string{"id": id.String()})
}

func (s *Server) handleUpdateAnimation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var animation domain.Animation
	if err := c.Bind(&animation); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	animation.ID = id

	if err := s.library.UpdateAnimation(c.Request().Context(), &animation); err != nil {
		return apperrors.FromDomain(err, "failed to update animation")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteAnimation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.library.DeleteAnimation(c.Request().Context(), id); err != nil {
		return apperrors.FromDomain(err, "failed to delete animation")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleAddVariant(c echo.Context) error {
	animationID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var variant domain.Variant
	if err := c.Bind(&variant); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	id, err := s.library.AddVariant(c.Request().Context(), animationID, &variant)
	if err != nil {
		return apperrors.FromDomain(err, "failed to add variant")
	}
	return c.JSON(201, map[string]string{"id": id.String()})
}

func (s *Server) handleDeleteVariant(c echo.Context) error {
	animationID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	variantID, err := parseIDParam(c, "variantID")
	if err != nil {
		return err
	}

	if err := s.library.DeleteVariant(c.Request().Context(), animationID, variantID); err != nil {
		return apperrors.FromDomain(err, "failed to delete variant")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleSetChainedCommands(c echo.Context) error {
	animationID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Commands []string `json:"commands"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.library.SetChainedCommands(c.Request().Context(), animationID, req.Commands); err != nil {
		return apperrors.FromDomain(err, "failed to set chained commands")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}
