package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

type allocateRequest struct {
	Credits int    `json:"credits"`
	Reason  string `json:"reason"`
}

type bulkAllocateRequest struct {
	InvitationIDs []uint `json:"invitation_ids"`
	Credits       int    `json:"credits"`
	Reason        string `json:"reason"`
	Category      string `json:"category"`
}

type adjustmentRequest struct {
	UserID    uint   `json:"user_id"`
	Amount    int    `json:"amount"`
	Reference string `json:"reference"`
}

// HandleAdminCreditAllocate allocates credits against one invitation.
// Repeating the call adds to the running total.
func HandleAdminCreditAllocate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid invitation id")
	}
	var req allocateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	svc := credits.NewAllocationServiceFromDB(databaseHandle())
	result, err := svc.Allocate(c.Context(), usercontext.GetUserID(c), uint(id), req.Credits, req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

// HandleAdminCreditBulkAllocate allocates the same amount to many
// invitations. The batch is validated as a whole before any row is touched.
func HandleAdminCreditBulkAllocate(c *fiber.Ctx) error {
	var req bulkAllocateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}
	if len(req.InvitationIDs) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invitation_ids is required")
	}

	svc := credits.NewAllocationServiceFromDB(databaseHandle())
	result, err := svc.BulkAllocate(c.Context(), usercontext.GetUserID(c),
		req.InvitationIDs, req.Credits, req.Reason, strings.TrimSpace(req.Category))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleAdminCreditRevoke revokes an invitation's allocation.
func HandleAdminCreditRevoke(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid invitation id")
	}
	svc := credits.NewAllocationServiceFromDB(databaseHandle())
	if err := svc.Revoke(c.Context(), usercontext.GetUserID(c), uint(id)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": models.AllocationRevoked})
}

// HandleAdminCreditAdjustment appends a manual ledger correction for a user.
// Negative amounts are allowed; the ledger itself is never rewritten.
func HandleAdminCreditAdjustment(c *fiber.Ctx) error {
	var req adjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}
	if req.UserID == 0 || req.Amount == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "user_id and a non-zero amount are required")
	}

	svc := credits.NewConsumptionServiceFromDB(databaseHandle())
	if err := svc.Adjust(c.Context(), req.UserID, req.Amount, req.Reference); err != nil {
		return respondError(c, err)
	}
	balance, err := svc.Balance(c.Context(), req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(balance)
}
