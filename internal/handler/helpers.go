package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/middleware"
	"github.com/noah-isme/coach-api/internal/service"
	"github.com/noah-isme/coach-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := middleware.RequestLogger(base, c)
	return &logger
}

func sessionKey(c *fiber.Ctx) string {
	return service.SessionKey(middleware.UserID(c), c.Get(middleware.SessionHeader))
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// respondError maps service sentinels onto HTTP statuses. Unknown errors become 500 with the fallback message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	log := requestLogger(logger, c)

	switch {
	case errors.Is(err, service.ErrValidation) || isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrChatInFlight):
		return utils.SendError(c, fiber.StatusConflict, service.ErrChatInFlight.Error())
	case errors.Is(err, service.ErrSessionConflict):
		return utils.SendError(c, fiber.StatusConflict, service.ErrSessionConflict.Error())
	case errors.Is(err, service.ErrGeneratorUnavailable):
		log.Warn().Err(err).Msg("generator unavailable")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "no model provider is configured")
	case errors.Is(err, service.ErrAnalysisFailed),
		errors.Is(err, service.ErrChatFailed),
		errors.Is(err, service.ErrRoadmapFailed):
		log.Error().Err(err).Msg("model request failed")
		return utils.SendError(c, fiber.StatusBadGateway, fallback)
	default:
		log.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
