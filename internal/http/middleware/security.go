package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"docvault/internal/config"
)

// Protections returns the edge middleware for the public API in mount order:
// security headers, CORS, response compression and the per-IP rate limiter.
// Compression and the limiter are skipped when disabled in cfg.
func Protections(cfg config.HTTPConfig) []fiber.Handler {
	handlers := []fiber.Handler{
		helmet.New(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: cfg.CORSCredentials,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + RequestIDHeader,
			ExposeHeaders:    RequestIDHeader,
		}),
	}
	if cfg.Compress {
		handlers = append(handlers, compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	}
	if cfg.RateLimitMax > 0 {
		handlers = append(handlers, RateLimit(cfg))
	}
	return handlers
}

// RateLimit allows cfg.RateLimitMax requests per cfg.RateLimitWindow for each client IP.
// Rejections surface as fiber.ErrTooManyRequests so the app error handler renders them.
func RateLimit(cfg config.HTTPConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	})
}

// BodyLimit converts the configured megabytes into fiber.Config.BodyLimit bytes.
func BodyLimit(cfg config.HTTPConfig) int {
	if cfg.BodyLimitMB <= 0 {
		return fiber.DefaultBodyLimit
	}
	return cfg.BodyLimitMB << 20
}
