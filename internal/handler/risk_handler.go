package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Jam232006/pulse-lms/internal/service"
	"github.com/Jam232006/pulse-lms/internal/utils"
)

// RiskHandler exposes risk scoring and profile history endpoints.
type RiskHandler struct {
	service service.RiskService
	logger  zerolog.Logger
}

// NewRiskHandler constructs a handler instance.
func NewRiskHandler(service service.RiskService, logger zerolog.Logger) *RiskHandler {
	return &RiskHandler{
		service: service,
		logger:  logger.With().Str("component", "risk_handler").Logger(),
	}
}

// Register binds the risk routes. Manual recalculation goes through the
// staffOnly guard; reads are open to any authenticated user.
func (h *RiskHandler) Register(router fiber.Router, staffOnly fiber.Handler) {
	router.Post("/:userID/calculate", staffOnly, h.calculate)
	router.Get("/:userID", h.get)
	router.Get("/:userID/history", h.history)
}

func (h *RiskHandler) calculate(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	result, err := h.service.Calculate(requestContext(c), userID)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("risk calculation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "risk calculation failed")
	}

	return utils.SendSuccess(c, "risk calculated", result)
}

func (h *RiskHandler) get(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	score, err := h.service.Get(requestContext(c), userID)
	if err != nil {
		if errors.Is(err, service.ErrRiskNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "no risk score recorded")
		}
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to fetch risk score")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch risk score")
	}

	return utils.SendSuccess(c, "risk score", score)
}

func (h *RiskHandler) history(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	points, err := h.service.History(requestContext(c), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to fetch risk history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch risk history")
	}

	return utils.SendSuccess(c, "risk history", points)
}
