package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/spms-go-api/internal/config"
	"github.com/noah-isme/spms-go-api/internal/utils"
)

var startedAt = time.Now().UTC()

// HealthResponse is the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// HealthCheck reports service liveness and basic runtime identity.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now().UTC()

		return utils.SendSuccess(c, "service healthy", HealthResponse{
			Status:        "ok",
			Timestamp:     now,
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			UptimeSeconds: now.Sub(startedAt).Seconds(),
		})
	}
}
