package apperrors

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler converts structured errors into JSON responses.
// Plug into echo.Echo.HTTPErrorHandler so handlers can just return errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if echoErr, ok := err.(*echo.HTTPError); ok {
		he = echoErr
		if jsonErr := c.JSON(he.Code, map[string]any{"error": he.Message}); jsonErr != nil {
			slog.Error("Failed to write error response", "error", jsonErr)
		}
		return
	}

	structured := From(err)

	if structured.Type == TypeInternal {
		slog.Error("Request failed",
			"type", string(structured.Type),
			"message", structured.Message,
			"error", structured.Cause,
			"path", c.Request().URL.Path,
		)
	} else {
		slog.Debug("Request rejected",
			"type", string(structured.Type),
			"message", structured.Message,
			"path", c.Request().URL.Path,
		)
	}

	if jsonErr := c.JSON(structured.HTTPStatus(), structured.ToResponse()); jsonErr != nil {
		slog.Error("Failed to write error response", "error", jsonErr)
	}
}
