package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/gradehub-api/internal/dto"
	"github.com/evalhub/gradehub-api/internal/service"
	"github.com/evalhub/gradehub-api/internal/utils"
)

// HomeworkHandler wires homework and check management routes.
type HomeworkHandler struct {
	service service.HomeworkService
	logger  zerolog.Logger
}

// NewHomeworkHandler constructs the handler.
func NewHomeworkHandler(service service.HomeworkService, logger zerolog.Logger) *HomeworkHandler {
	return &HomeworkHandler{
		service: service,
		logger:  logger.With().Str("component", "homework_handler").Logger(),
	}
}

// Register attaches all homework endpoints to a single router group.
func (h *HomeworkHandler) Register(router fiber.Router) {
	h.RegisterReads(router)
	h.RegisterManagement(router)
}

// RegisterReads attaches the read-only homework endpoints.
func (h *HomeworkHandler) RegisterReads(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:name", h.get)
}

// RegisterManagement attaches the endpoints that mutate homework definitions.
// Guards run before each route handler, so role checks apply to these routes
// only and not to the whole group prefix.
func (h *HomeworkHandler) RegisterManagement(router fiber.Router, guards ...fiber.Handler) {
	router.Post("", append(guards, h.create)...)
	router.Patch("/:name", append(guards, h.update)...)
	router.Delete("/:name", append(guards, h.delete)...)
	router.Put("/:name/checks", append(guards, h.upsertCheck)...)
	router.Delete("/:name/checks/:check", append(guards, h.removeCheck)...)
	router.Post("/:name/reset", append(guards, h.reset)...)
}

func (h *HomeworkHandler) list(c *fiber.Ctx) error {
	homeworks, err := h.service.List(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "homeworks retrieved", homeworks)
}

func (h *HomeworkHandler) get(c *fiber.Ctx) error {
	homework, err := h.service.Get(c.Context(), c.Params("name"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework retrieved", homework)
}

func (h *HomeworkHandler) create(c *fiber.Ctx) error {
	var payload dto.HomeworkCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	homework, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "homework created", homework)
}

func (h *HomeworkHandler) update(c *fiber.Ctx) error {
	var payload dto.HomeworkUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	homework, err := h.service.Update(c.Context(), c.Params("name"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework updated", homework)
}

func (h *HomeworkHandler) delete(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.service.Delete(c.Context(), name); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework deleted", fiber.Map{"name": name})
}

func (h *HomeworkHandler) upsertCheck(c *fiber.Ctx) error {
	var payload dto.CheckUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	homework, err := h.service.UpsertCheck(c.Context(), c.Params("name"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "check saved", homework)
}

func (h *HomeworkHandler) removeCheck(c *fiber.Ctx) error {
	homework, err := h.service.RemoveCheck(c.Context(), c.Params("name"), c.Params("check"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "check removed", homework)
}

func (h *HomeworkHandler) reset(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.service.Reset(c.Context(), name); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework grades reset", fiber.Map{"name": name})
}

func (h *HomeworkHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrHomeworkNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "homework not found")
	case errors.Is(err, service.ErrCheckNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "check not found")
	case errors.Is(err, service.ErrHomeworkExists):
		return utils.SendError(c, fiber.StatusConflict, "homework already exists")
	case errors.Is(err, service.ErrInvalidCheck):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *HomeworkHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
