package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/service"
	"github.com/Jam232006/pulse-lms/internal/utils"
)

// AssignmentHandler exposes assignment issuing, submission and close.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs a handler instance.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register binds the assignment routes.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Post("/", h.issue)
	router.Post("/:id/submissions", h.submit)
	router.Post("/:id/close", h.close)
}

func (h *AssignmentHandler) issue(c *fiber.Ctx) error {
	var req dto.AssignmentIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Issue(requestContext(c), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClassNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "class not found")
		default:
			h.logger.Error().Err(err).Msg("failed to issue assignment")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to issue assignment")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment issued", result)
}

func (h *AssignmentHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	var req dto.SubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Submit(requestContext(c), assignmentID, req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadySubmitted), errors.Is(err, service.ErrScoreExceedsMax):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		default:
			h.logger.Error().Err(err).Uint("assignment_id", assignmentID).Msg("failed to record submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record submission")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", submission)
}

func (h *AssignmentHandler) close(c *fiber.Ctx) error {
	assignmentID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	result, err := h.service.Close(requestContext(c), assignmentID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
		}
		h.logger.Error().Err(err).Uint("assignment_id", assignmentID).Msg("failed to close assignment")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to close assignment")
	}

	return utils.SendSuccess(c, "assignment closed", result)
}
