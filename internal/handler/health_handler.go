package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/coach-api/internal/config"
	"github.com/noah-isme/coach-api/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Provider     string            `json:"provider"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthCheck reports service health along with database and cache reachability.
// A failing dependency degrades the status without failing the request.
func HealthCheck(cfg config.Config, db *gorm.DB, cache *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(requestContext(c), healthCheckTimeout)
		defer cancel()

		payload := HealthResponse{
			Status:       "ok",
			Timestamp:    time.Now().UTC(),
			Service:      cfg.AppName,
			Environment:  cfg.AppEnv,
			Provider:     cfg.AIProvider,
			Dependencies: map[string]string{},
		}

		if db != nil {
			payload.Dependencies["database"] = "ok"
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				payload.Dependencies["database"] = "unreachable"
				payload.Status = "degraded"
			}
		}

		payload.Dependencies["redis"] = "disabled"
		if cache != nil {
			payload.Dependencies["redis"] = "ok"
			if err := cache.Ping(ctx).Err(); err != nil {
				payload.Dependencies["redis"] = "unreachable"
				payload.Status = "degraded"
			}
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
