package controllers

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/bulkimport"
	"github.com/drishiq/drishiq/internal/pkg/csvarchive"
	"github.com/drishiq/drishiq/internal/pkg/plans"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

// HandleAdminBulkUpload imports a CSV of invitation candidates. Row failures
// are reported per row; only whole-file problems reject the upload.
func HandleAdminBulkUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "a CSV file upload is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, bulkimport.MaxFileSize+1))
	if err != nil {
		return respondError(c, err)
	}

	var archiver bulkimport.Archiver
	if cfg, err := csvarchive.LoadConfig(); err == nil && cfg.IsEnabled() {
		if client, err := csvarchive.NewClient(cfg); err == nil {
			archiver = client
		}
	}

	userCtx := usercontext.GetUserContext(c)
	importer := bulkimport.NewImporterFromDB(databaseHandle(), archiver)
	maxRows := plans.BulkImportRowLimit(plans.Normalize(userCtx.Plan))
	result, err := importer.Import(c.Context(), userCtx.UserID,
		strings.TrimSpace(c.FormValue("name")), fileHeader.Filename, data, maxRows)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleAdminBulkUploadList lists past imports.
func HandleAdminBulkUploadList(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	repo := repository.GetGlobalFactory().GetBulkUploadRepository()
	uploads, total, err := repo.List(offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": uploads,
		"meta": paginationMeta(page, limit, total),
	})
}

// HandleAdminBulkUploadDetail returns one import with its row errors and the
// invitations it created.
func HandleAdminBulkUploadDetail(c *fiber.Ctx) error {
	uploadUUID := strings.TrimSpace(c.Params("uuid"))
	repos := repository.GetGlobalFactory()
	upload, err := repos.GetBulkUploadRepository().GetByUUID(uploadUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "bulk upload not found")
		}
		return respondError(c, err)
	}

	rowErrors, err := repos.GetBulkUploadRepository().ListErrors(upload.ID)
	if err != nil {
		return respondError(c, err)
	}
	invitations, err := repos.GetInvitationRepository().ListByBulkUpload(upload.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"upload":      upload,
		"errors":      rowErrors,
		"invitations": invitations,
	})
}
