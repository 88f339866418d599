package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/env"
	"github.com/drishiq/drishiq/internal/pkg/hcaptcha"
	"github.com/drishiq/drishiq/internal/pkg/invitecode"
	"github.com/drishiq/drishiq/internal/pkg/security"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

// publicCategories are the categories a visitor may request directly.
var publicCategories = map[string]bool{
	models.CategoryTrialAccess: true,
	models.CategoryNeedSupport: true,
	models.CategoryTestimonial: true,
	models.CategoryGeneral:     true,
}

type invitationRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Language     string `json:"language"`
	Category     string `json:"category"`
	Note         string `json:"note"`
	CaptchaToken string `json:"captcha_token"`
}

type redeemRequest struct {
	Token string `json:"token"`
}

// HandleInvitationRequest takes a public invitation request and stores it as
// pending. One open invitation per email.
func HandleInvitationRequest(c *fiber.Ctx) error {
	var req invitationRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	if hcaptcha.Enabled() {
		ok, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !ok {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "captcha verification failed")
		}
	}

	category := strings.ToLower(strings.TrimSpace(req.Category))
	if !publicCategories[category] {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "unknown invitation category")
	}

	repo := repository.GetGlobalFactory().GetInvitationRepository()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	open, err := repo.HasOpenByEmail(email)
	if err != nil {
		return respondError(c, err)
	}
	if open {
		return jsonError(c, fiber.StatusConflict, "conflict", "an open invitation already exists for this email")
	}

	code, err := invitecode.Generate(invitecode.DefaultLength)
	if err != nil {
		return respondError(c, err)
	}
	inv := &models.Invitation{
		UUID:     uuid.NewString(),
		Code:     code,
		Category: category,
		Status:   models.InvitationPending,
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Phone:    strings.TrimSpace(req.Phone),
		Language: strings.TrimSpace(req.Language),
		Note:     strings.TrimSpace(req.Note),
	}
	if inv.Language == "" {
		inv.Language = "en"
	}
	if err := inv.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}
	if err := repo.Create(inv); err != nil {
		return respondError(c, err)
	}

	logrus.WithFields(logrus.Fields{
		"category": inv.Category,
		"uuid":     inv.UUID,
	}).Info("invitation requested")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"uuid":     inv.UUID,
		"code":     inv.Code,
		"category": inv.Category,
		"status":   inv.Status,
	})
}

// HandleInvitationStatus returns the public view of an invitation by code.
func HandleInvitationStatus(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	repo := repository.GetGlobalFactory().GetInvitationRepository()
	inv, err := repo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "invitation not found")
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"code":       inv.Code,
		"category":   inv.Category,
		"status":     inv.Status,
		"created_at": inv.CreatedAt,
	})
}

// HandleInvitationRedeem consumes a magic link: the approved invitation's
// credits move into the signed-in user's ledger and the invitation becomes
// used. Replaying the link grants nothing further.
func HandleInvitationRedeem(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	invitationUUID, err := security.VerifyMagicLinkToken(req.Token, env.GetEnv("JWT_SECRET", ""))
	if err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetInvitationRepository()
	inv, err := repo.GetByUUID(invitationUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "invitation not found")
		}
		return respondError(c, err)
	}
	if inv.Status != models.InvitationApproved && inv.Status != models.InvitationUsed {
		return jsonError(c, fiber.StatusConflict, "conflict", "invitation is not approved")
	}

	svc := credits.NewAllocationServiceFromDB(databaseHandle())
	granted, err := svc.Redeem(c.Context(), inv.ID, userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"invitation": inv.UUID,
		"granted":    granted,
	})
}
