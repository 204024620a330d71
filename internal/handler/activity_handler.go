package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/service"
	"github.com/Jam232006/pulse-lms/internal/utils"
)

// ActivityHandler exposes activity logging and history endpoints.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs a handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register binds the activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("/", h.log)
	router.Get("/:userID", h.list)
}

func (h *ActivityHandler) log(c *fiber.Ctx) error {
	var req dto.ActivityLogRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	entry, err := h.service.Log(requestContext(c), req)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to log activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to log activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity logged", entry)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	entries, err := h.service.ListByUser(requestContext(c), userID)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to list activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list activity")
	}

	return utils.SendSuccess(c, "activity history", entries)
}
