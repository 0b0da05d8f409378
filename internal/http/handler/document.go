package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/errs"
	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

type beginUploadRequest struct {
	Name     string  `json:"name"`
	MimeType string  `json:"mime_type"`
	Size     int64   `json:"size"`
	FolderID *string `json:"folder_id"`
}

type versionUploadRequest struct {
	Size int64 `json:"size"`
}

type completeUploadRequest struct {
	Checksum *string `json:"checksum"`
	Comment  *string `json:"comment"`
}

type completeUploadResponse struct {
	Status        string `json:"status"`
	VersionID     string `json:"version_id"`
	VersionNumber int    `json:"version_number"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// parseBody decodes an optional JSON body. An empty body leaves dst untouched.
func parseBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return errs.Validation("malformed request body")
	}
	return nil
}

// versionParam reads ?version=n; 0 means the current version.
func versionParam(c *fiber.Ctx) (int, error) {
	raw := c.Query("version")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errs.Validation("version must be a positive integer")
	}
	return n, nil
}

// BeginUpload starts a new document upload.
//
// @Summary  Begin a document upload
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    body body beginUploadRequest true "document metadata"
// @Success  201 {object} model.UploadTicket
// @Failure  400 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Security BearerAuth
// @Router   /api/documents [post]
func BeginUpload(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req beginUploadRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}

		ticket, err := svc.BeginUpload(c.UserContext(), middleware.OwnerID(c), service.BeginUploadInput{
			Name:     req.Name,
			MimeType: req.MimeType,
			Size:     req.Size,
			FolderID: req.FolderID,
		})
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ticket)
	}
}

// BeginVersionUpload issues a write URL for the next version of a document.
//
// @Summary  Begin a new version upload
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    id   path string               true  "document id"
// @Param    body body versionUploadRequest false "declared size of the new version"
// @Success  201 {object} model.UploadTicket
// @Security BearerAuth
// @Router   /api/documents/{id}/uploads [post]
func BeginVersionUpload(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req versionUploadRequest
		if err := parseBody(c, &req); err != nil {
			return fail(c, err)
		}
		ticket, err := svc.BeginVersionUpload(c.UserContext(), middleware.OwnerID(c), c.Params("id"), req.Size)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ticket)
	}
}

// CompleteUpload commits the uploaded bytes as the next version.
//
// @Summary  Complete an upload
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    id   path string                true  "document id"
// @Param    body body completeUploadRequest false "checksum and comment"
// @Success  200 {object} completeUploadResponse
// @Failure  404 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Security BearerAuth
// @Router   /api/documents/{id}/complete [put]
func CompleteUpload(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req completeUploadRequest
		if err := parseBody(c, &req); err != nil {
			return fail(c, err)
		}
		v, err := svc.CompleteUpload(c.UserContext(), middleware.OwnerID(c), c.Params("id"), service.CompleteUploadInput{
			Checksum: req.Checksum,
			Comment:  req.Comment,
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(completeUploadResponse{
			Status:        "committed",
			VersionID:     v.ID,
			VersionNumber: v.VersionNumber,
		})
	}
}

// ListDocuments lists the caller's documents with limit & offset.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    limit           query int  false "page size (max 100)" default(10)
// @Param    offset          query int  false "offset"              default(0)
// @Param    include_deleted query bool false "include soft-deleted documents"
// @Success  200 {object} service.DocumentListResult
// @Security BearerAuth
// @Router   /api/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), middleware.OwnerID(c), service.ListInput{
			Limit:          limit,
			Offset:         offset,
			IncludeDeleted: c.QueryBool("include_deleted", false),
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocument returns a single document.
//
// @Summary  Get a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} model.Document
// @Failure  404 {object} errorPayload
// @Security BearerAuth
// @Router   /api/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), middleware.OwnerID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(doc)
	}
}

// ListVersions returns the versions of a document, newest first.
//
// @Summary  List versions
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {array} model.DocumentVersion
// @Security BearerAuth
// @Router   /api/documents/{id}/versions [get]
func ListVersions(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		versions, err := svc.ListVersions(c.UserContext(), middleware.OwnerID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(versions)
	}
}

// ReadURL returns a presigned GET URL for the current version or ?version=n.
// It backs both the download and preview routes.
//
// @Summary  Get a download URL
// @Tags     documents
// @Produce  json
// @Param    id      path  string true  "document id"
// @Param    version query int    false "version number"
// @Success  200 {object} service.ReadURL
// @Failure  409 {object} errorPayload
// @Security BearerAuth
// @Router   /api/documents/{id}/download [get]
// @Router   /api/documents/{id}/preview [get]
func ReadURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		version, err := versionParam(c)
		if err != nil {
			return fail(c, err)
		}
		u, err := svc.DownloadURL(c.UserContext(), middleware.OwnerID(c), c.Params("id"), version)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

// StreamContent proxies the object bytes for clients that cannot follow a storage URL.
//
// @Summary  Stream document content
// @Tags     documents
// @Produce  octet-stream
// @Param    id      path  string true  "document id"
// @Param    version query int    false "version number"
// @Success  200 {file} binary
// @Failure  502 {object} errorPayload
// @Security BearerAuth
// @Router   /api/documents/{id}/content [get]
func StreamContent(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		version, err := versionParam(c)
		if err != nil {
			return fail(c, err)
		}
		rc, info, err := svc.OpenContent(c.UserContext(), middleware.OwnerID(c), c.Params("id"), version)
		if err != nil {
			return fail(c, err)
		}

		c.Set(fiber.HeaderContentType, info.ContentType)
		if info.ETag != "" {
			c.Set(fiber.HeaderETag, strconv.Quote(info.ETag))
		}
		// fasthttp closes rc once the body has been written.
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}

// SoftDelete hides a document without removing it.
//
// @Summary  Soft delete a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} statusResponse
// @Security BearerAuth
// @Router   /api/documents/{id} [delete]
func SoftDelete(svc service.DocumentService) fiber.Handler {
	return setDeleted(svc, true, "deleted")
}

// Restore clears the soft-delete flag.
//
// @Summary  Restore a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} statusResponse
// @Security BearerAuth
// @Router   /api/documents/{id}/restore [post]
func Restore(svc service.DocumentService) fiber.Handler {
	return setDeleted(svc, false, "restored")
}

func setDeleted(svc service.DocumentService, deleted bool, status string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.SetDeleted(c.UserContext(), middleware.OwnerID(c), c.Params("id"), deleted); err != nil {
			return fail(c, err)
		}
		return c.JSON(statusResponse{Status: status})
	}
}

// HardDelete removes a document, its versions and shares permanently.
//
// @Summary  Permanently delete a document
// @Tags     documents
// @Param    id path string true "document id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Security BearerAuth
// @Router   /api/documents/{id}/permanent [delete]
func HardDelete(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.HardDelete(c.UserContext(), middleware.OwnerID(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
