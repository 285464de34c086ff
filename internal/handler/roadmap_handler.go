package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/middleware"
	"github.com/noah-isme/coach-api/internal/service"
	"github.com/noah-isme/coach-api/internal/utils"
)

// RoadmapHandler exposes the personalised learning roadmap.
type RoadmapHandler struct {
	service service.RoadmapService
	logger  zerolog.Logger
}

// NewRoadmapHandler constructs a roadmap handler.
func NewRoadmapHandler(service service.RoadmapService, logger zerolog.Logger) *RoadmapHandler {
	return &RoadmapHandler{
		service: service,
		logger:  logger.With().Str("component", "roadmap_handler").Logger(),
	}
}

// Register wires roadmap routes.
func (h *RoadmapHandler) Register(router fiber.Router) {
	router.Get("/roadmap", h.getRoadmap)
}

func (h *RoadmapHandler) getRoadmap(c *fiber.Ctx) error {
	roadmap, err := h.service.Generate(requestContext(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to generate roadmap")
	}
	return utils.SendSuccess(c, "roadmap generated", roadmap)
}
