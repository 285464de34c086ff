package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/middleware"
	"github.com/noah-isme/coach-api/internal/service"
	"github.com/noah-isme/coach-api/internal/utils"
)

// DashboardHandler exposes the progress dashboard and activity feed.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler creates a new handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoints.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.getDashboard)
	router.Get("/activity", h.recentActivity)
}

func (h *DashboardHandler) getDashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.GetDashboard(requestContext(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load dashboard")
	}
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *DashboardHandler) recentActivity(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	items, err := h.service.RecentActivity(requestContext(c), middleware.UserID(c), limit)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load activity")
	}
	return utils.SendSuccess(c, "activity retrieved", items)
}
