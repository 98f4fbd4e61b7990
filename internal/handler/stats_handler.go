package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spms-go-api/internal/service"
	"github.com/noah-isme/spms-go-api/internal/utils"
)

// StatsHandler exposes per-student analytics endpoints.
type StatsHandler struct {
	service                 service.StatsService
	inactivityThresholdDays int
	logger                  zerolog.Logger
}

// NewStatsHandler builds a stats handler instance.
func NewStatsHandler(service service.StatsService, inactivityThresholdDays int, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service:                 service,
		inactivityThresholdDays: inactivityThresholdDays,
		logger:                  logger.With().Str("component", "stats_handler").Logger(),
	}
}

// Register attaches the routes to the students router group.
func (h *StatsHandler) Register(router fiber.Router) {
	router.Get("/:id/contest-history", h.contestHistory)
	router.Get("/:id/problem-stats", h.problemStats)
	router.Get("/:id/inactive", h.inactive)
}

func (h *StatsHandler) contestHistory(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	days, err := parseQueryInt(c, "days", 30)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid days")
	}

	history, err := h.service.ContestHistory(c.Context(), id, days)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "contest history retrieved", history)
}

func (h *StatsHandler) problemStats(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	days, err := parseQueryInt(c, "days", 7)
	if err != nil || days <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "days must be a positive integer")
	}

	stats, err := h.service.ComputeStats(c.Context(), id, days)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "problem stats retrieved", stats)
}

func (h *StatsHandler) inactive(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	threshold, err := parseQueryInt(c, "threshold_days", h.inactivityThresholdDays)
	if err != nil || threshold <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "threshold_days must be a positive integer")
	}

	inactive, err := h.service.CheckInactivity(c.Context(), id, threshold)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "inactivity verdict computed", fiber.Map{"inactive": inactive})
}

func (h *StatsHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrInvalidWindow):
		return utils.SendError(c, fiber.StatusBadRequest, "days must be a positive integer")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
