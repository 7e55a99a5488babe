package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/gradehub-api/internal/dto"
	"github.com/evalhub/gradehub-api/internal/service"
	"github.com/evalhub/gradehub-api/internal/utils"
)

// GradingHandler wires submission grading, ledger, stats, and export routes.
type GradingHandler struct {
	grading service.GradingService
	ledger  service.LedgerService
	stats   service.StatsService
	export  service.ExportService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(
	grading service.GradingService,
	ledger service.LedgerService,
	stats service.StatsService,
	export service.ExportService,
	logger zerolog.Logger,
) *GradingHandler {
	return &GradingHandler{
		grading: grading,
		ledger:  ledger,
		stats:   stats,
		export:  export,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the homework router group. Guards
// run before the grade route only; reads stay unguarded.
func (h *GradingHandler) Register(router fiber.Router, gradeGuards ...fiber.Handler) {
	router.Post("/:name/submissions", append(gradeGuards, h.grade)...)
	router.Get("/:name/submissions/:learner", h.history)
	router.Get("/:name/ledger", h.getLedger)
	router.Get("/:name/ledger/:learner", h.getLearner)
	router.Get("/:name/stats", h.getStats)
	router.Get("/:name/export", h.exportLedger)
}

// RegisterSubmissions attaches the submission lookup endpoint.
func (h *GradingHandler) RegisterSubmissions(router fiber.Router) {
	router.Get("/:id", h.getSubmission)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.grading.GradeAndRecord(c.Context(), c.Params("name"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission graded", record)
}

func (h *GradingHandler) getSubmission(c *fiber.Ctx) error {
	record, err := h.grading.GetSubmission(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", record)
}

func (h *GradingHandler) history(c *fiber.Ctx) error {
	history, err := h.grading.History(c.Context(), c.Params("name"), c.Params("learner"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission history retrieved", history)
}

func (h *GradingHandler) getLedger(c *fiber.Ctx) error {
	ledger, err := h.ledger.GetLedger(c.Context(), c.Params("name"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ledger retrieved", ledger)
}

func (h *GradingHandler) getLearner(c *fiber.Ctx) error {
	learner, err := h.ledger.GetLearner(c.Context(), c.Params("name"), c.Params("learner"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "learner grades retrieved", learner)
}

func (h *GradingHandler) getStats(c *fiber.Ctx) error {
	stats, err := h.stats.GetStats(c.Context(), c.Params("name"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "stats retrieved", stats)
}

func (h *GradingHandler) exportLedger(c *fiber.Ctx) error {
	name := c.Params("name")
	format := strings.ToLower(c.Query("format", "csv"))

	var payload []byte
	var contentType string
	var err error

	switch format {
	case "csv":
		payload, err = h.export.ExportCSV(c.Context(), name)
		contentType = "text/csv"
	case "json":
		payload, err = h.export.ExportJSON(c.Context(), name)
		contentType = fiber.MIMEApplicationJSON
	default:
		return utils.SendError(c, fiber.StatusBadRequest, "format must be csv or json")
	}
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s-ledger.%s", name, format))
	return c.Send(payload)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrHomeworkNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "homework not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrLearnerNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "learner not found")
	case errors.Is(err, service.ErrNoChecks):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "homework has no checks defined")
	case errors.Is(err, service.ErrLateSubmission):
		return utils.SendError(c, fiber.StatusForbidden, "the submission deadline has passed")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
