package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
)

var startedAt = time.Now()

type healthStatus struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// HealthCheck checks DB connectivity only. The body also carries the current time
// and the process uptime in seconds.
//
// @Summary  Readiness probe
// @Tags     ops
// @Produce  json
// @Success  200 {object} healthStatus
// @Failure  503 {object} errorPayload
// @Router   /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.Locals(middleware.ErrorLocalKey, err)
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		now := time.Now()
		return c.Status(fiber.StatusOK).JSON(healthStatus{
			Status:    "healthy",
			Timestamp: now.UTC().Format(time.RFC3339Nano),
			Uptime:    now.Sub(startedAt).Seconds(),
		})
	}
}

// LivenessProbe always answers 200 while the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
