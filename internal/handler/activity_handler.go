package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/service"
)

// ActivityHandler upgrades dashboard connections to the live activity stream.
type ActivityHandler struct {
	service service.ActivityStreamService
	logger  zerolog.Logger
}

// NewActivityHandler creates an activity stream handler.
func NewActivityHandler(service service.ActivityStreamService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register binds the websocket route; the router must authenticate before it.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Use("/stream/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/stream/ws", websocket.New(h.handleConnection))
}

func (h *ActivityHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		_ = conn.Close()
		return
	}

	correlation, _ := conn.Locals("correlation_id").(string)
	opts := service.ActivityConnectionOptions{
		UserID:        userID,
		CorrelationID: correlation,
	}

	h.logger.Info().Str("user_id", userID).Str("correlation_id", opts.CorrelationID).Msg("activity websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("user_id", userID).Msg("activity websocket disconnected")
}
