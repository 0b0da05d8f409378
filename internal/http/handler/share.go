package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/service"
)

type createShareRequest struct {
	SharedWithUserID *string    `json:"shared_with_user_id"`
	ExpiresAt        *time.Time `json:"expires_at"`
	Permissions      string     `json:"permissions"`
}

// CreateShare grants access to a document.
//
// @Summary  Share a document
// @Tags     shares
// @Accept   json
// @Produce  json
// @Param    id   path string             true  "document id"
// @Param    body body createShareRequest false "share options"
// @Success  201 {object} model.Share
// @Security BearerAuth
// @Router   /api/documents/{id}/shares [post]
func CreateShare(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createShareRequest
		if err := parseBody(c, &req); err != nil {
			return fail(c, err)
		}
		share, err := svc.CreateShare(c.UserContext(), middleware.OwnerID(c), c.Params("id"), service.ShareInput{
			SharedWithUserID: req.SharedWithUserID,
			ExpiresAt:        req.ExpiresAt,
			Permissions:      model.Permission(req.Permissions),
		})
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(share)
	}
}

// ListShares lists the shares of a document.
//
// @Summary  List shares
// @Tags     shares
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {array} model.Share
// @Security BearerAuth
// @Router   /api/documents/{id}/shares [get]
func ListShares(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shares, err := svc.ListShares(c.UserContext(), middleware.OwnerID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(shares)
	}
}

// ResolveShare exchanges a public link token for a read URL. No authentication.
//
// @Summary  Resolve a public share link
// @Tags     shares
// @Produce  json
// @Param    token path string true "public link token"
// @Success  200 {object} service.ReadURL
// @Failure  404 {object} errorPayload
// @Failure  410 {object} errorPayload
// @Router   /api/shares/{token} [get]
func ResolveShare(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.ResolveShare(c.UserContext(), c.Params("token"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}
