package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

// Deps groups what the routes need.
type Deps struct {
	DB        *sql.DB
	Documents service.DocumentService
	Shares    service.ShareService
	// Auth guards /api/documents; typically middleware.JWT.
	Auth fiber.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/shares/:token", ResolveShare(d.Shares))

	docs := api.Group("/documents", d.Auth)
	docs.Post("/", BeginUpload(d.Documents))
	docs.Get("/", ListDocuments(d.Documents))
	docs.Get("/:id", GetDocument(d.Documents))
	docs.Delete("/:id", SoftDelete(d.Documents))
	docs.Post("/:id/uploads", BeginVersionUpload(d.Documents))
	docs.Put("/:id/complete", CompleteUpload(d.Documents))
	docs.Get("/:id/versions", ListVersions(d.Documents))
	docs.Get("/:id/download", ReadURL(d.Documents))
	docs.Get("/:id/preview", ReadURL(d.Documents))
	docs.Get("/:id/content", StreamContent(d.Documents))
	docs.Post("/:id/restore", Restore(d.Documents))
	docs.Delete("/:id/permanent", HardDelete(d.Documents))
	docs.Post("/:id/shares", CreateShare(d.Shares))
	docs.Get("/:id/shares", ListShares(d.Shares))
}
