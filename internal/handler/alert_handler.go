package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/service"
	"github.com/Jam232006/pulse-lms/internal/utils"
)

// AlertHandler exposes the alert inbox, resolution and SSE stream.
type AlertHandler struct {
	service   service.AlertService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewAlertHandler constructs a handler instance.
func NewAlertHandler(service service.AlertService, logger zerolog.Logger, keepAlive time.Duration) *AlertHandler {
	return &AlertHandler{
		service:   service,
		logger:    logger.With().Str("component", "alert_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the alert routes.
func (h *AlertHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/stream", h.stream)
	router.Patch("/:id/resolve", h.resolve)
}

func (h *AlertHandler) list(c *fiber.Ctx) error {
	recipientID := userIDFromContext(c)
	if recipientID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	unresolvedOnly := c.QueryBool("unresolved", false)

	alerts, err := h.service.ListForRecipient(requestContext(c), recipientID, userRoleFromContext(c), unresolvedOnly)
	if err != nil {
		h.logger.Error().Err(err).Uint("recipient_id", recipientID).Msg("failed to list alerts")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list alerts")
	}

	return utils.SendSuccess(c, "alerts", alerts)
}

func (h *AlertHandler) resolve(c *fiber.Ctx) error {
	recipientID := userIDFromContext(c)
	if recipientID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	alert, err := h.service.Resolve(requestContext(c), id, recipientID, userRoleFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrAlertNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "alert not found")
		}
		h.logger.Error().Err(err).Uint("alert_id", id).Msg("failed to resolve alert")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve alert")
	}

	return utils.SendSuccess(c, "alert resolved", alert)
}

func (h *AlertHandler) stream(c *fiber.Ctx) error {
	recipientID := userIDFromContext(c)
	if recipientID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))

	stream, cleanup := h.service.Subscribe(recipientID, userRoleFromContext(c))

	keepAliveInterval := h.keepAlive
	if keepAliveInterval <= 0 {
		keepAliveInterval = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(keepAliveInterval / 2)
		defer ticker.Stop()

		for {
			select {
			case alert, ok := <-stream:
				if !ok {
					return
				}
				if err := writeAlertEvent(w, alert); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write alert event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write alert keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeAlertEvent(w *bufio.Writer, alert dto.AlertResponse) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: alert\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
