package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spms-go-api/internal/service"
	"github.com/noah-isme/spms-go-api/internal/utils"
)

// SyncHandler exposes on-demand synchronization endpoints.
type SyncHandler struct {
	service service.SyncService
	logger  zerolog.Logger
}

// NewSyncHandler builds a sync handler instance.
func NewSyncHandler(service service.SyncService, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		logger:  logger.With().Str("component", "sync_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SyncHandler) Register(router fiber.Router) {
	router.Post("", h.syncAll)
	router.Post("/:handle", h.syncHandle)
}

func (h *SyncHandler) syncHandle(c *fiber.Ctx) error {
	handle := c.Params("handle")
	if handle == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "handle is required")
	}

	outcome, err := h.service.SyncByHandle(c.Context(), handle)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "sync complete", outcome)
}

func (h *SyncHandler) syncAll(c *fiber.Ctx) error {
	result, err := h.service.SyncAll(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "sweep complete", result)
}

func (h *SyncHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
