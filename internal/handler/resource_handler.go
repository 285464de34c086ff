package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/middleware"
	"github.com/noah-isme/coach-api/internal/service"
	"github.com/noah-isme/coach-api/internal/utils"
)

// ResourceHandler serves curated study material and practice recommendations.
type ResourceHandler struct {
	service service.ResourceService
	logger  zerolog.Logger
}

// NewResourceHandler creates a resource handler.
func NewResourceHandler(service service.ResourceService, logger zerolog.Logger) *ResourceHandler {
	return &ResourceHandler{
		service: service,
		logger:  logger.With().Str("component", "resource_handler").Logger(),
	}
}

// Register attaches resource routes.
func (h *ResourceHandler) Register(router fiber.Router) {
	router.Get("/resources", h.listResources)
	router.Get("/recommendations", h.recommendations)
}

func (h *ResourceHandler) listResources(c *fiber.Ctx) error {
	sections, err := h.service.Curate(requestContext(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load resources")
	}
	return utils.SendSuccess(c, "resources retrieved", sections)
}

func (h *ResourceHandler) recommendations(c *fiber.Ctx) error {
	result, err := h.service.Recommend(requestContext(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load recommendations")
	}
	return utils.SendSuccess(c, "recommendations retrieved", result)
}
