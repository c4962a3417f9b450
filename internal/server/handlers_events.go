package server

import (
	"github.com/labstack/echo/v4"

	"github.com/fiercekittenz/gifbot/internal/apperrors"
	"github.com/fiercekittenz/gifbot/internal/domain"
)

var knownEventKinds = map[domain.EventKind]bool{
	domain.EventChat:         true,
	domain.EventBits:         true,
	domain.EventSub:          true,
	domain.EventGiftSub:      true,
	domain.EventTip:          true,
	domain.EventDonation:     true,
	domain.EventChannelPoint: true,
	domain.EventHost:         true,
	domain.EventRaid:         true,
	domain.EventHypeTrain:    true,
}

// handleIngestEvent accepts a normalized trigger event from the chat relay
// or the alert webhook bridge and hands it to the dispatch worker. The
// response says "accepted", never "played": resolution happens async.
func (s *Server) handleIngestEvent(c echo.Context) error {
	if !s.ingestLimiter.Allow(c.RealIP()) {
		return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
	}

	var ev domain.TriggerEvent
	if err := c.Bind(&ev); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if !knownEventKinds[ev.Kind] {
		return apperrors.ValidationError("unknown event kind").WithField("kind", string(ev.Kind))
	}
	if ev.DisplayName == "" {
		return apperrors.ValidationError("displayName is required")
	}
	if ev.Kind == domain.EventChat && ev.RawMessage == "" {
		return apperrors.ValidationError("rawMessage is required for chat events")
	}

	if !s.dispatcher.Submit(ev) {
		return c.JSON(503, map[string]string{"error": "event queue full"})
	}
	return c.JSON(202, map[string]string{"status": "accepted"})
}
