package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/env"
	"github.com/drishiq/drishiq/internal/pkg/mail"
	"github.com/drishiq/drishiq/internal/pkg/security"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

// MagicLinkTTL is how long a sent magic link stays redeemable.
const MagicLinkTTL = 72 * time.Hour

type invitationActionRequest struct {
	Action  string `json:"action"`
	Note    string `json:"note"`
	Credits int    `json:"credits"`
}

type bulkApproveRequest struct {
	InvitationIDs []uint `json:"invitation_ids"`
	Note          string `json:"note"`
}

// HandleAdminInvitationList lists invitations with their credit ledgers.
func HandleAdminInvitationList(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	filter := repository.InvitationListFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   c.Query("search"),
		Offset:   offset,
		Limit:    limit,
	}

	repo := repository.GetGlobalFactory().GetInvitationRepository()
	rows, total, err := repo.List(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": rows,
		"meta": paginationMeta(page, limit, total),
	})
}

// HandleAdminInvitationDetail returns one invitation with its row context.
func HandleAdminInvitationDetail(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid invitation id")
	}
	repo := repository.GetGlobalFactory().GetInvitationRepository()
	inv, err := repo.GetByID(uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// HandleAdminInvitationAction applies one review action. Status moves are
// monotonic; acting on a terminal invitation answers 409.
func HandleAdminInvitationAction(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid invitation id")
	}
	var req invitationActionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	repo := repository.GetGlobalFactory().GetInvitationRepository()
	inv, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "invitation not found")
		}
		return respondError(c, err)
	}

	adminID := usercontext.GetUserID(c)
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "approve":
		if err := transitionInvitation(repo, inv, models.InvitationApproved, adminID, req.Note); err != nil {
			return respondError(c, err)
		}
		if req.Credits > 0 {
			svc := credits.NewAllocationServiceFromDB(databaseHandle())
			reason := req.Note
			if reason == "" {
				reason = "approved " + inv.Category + " invitation"
			}
			if _, err := svc.Allocate(c.Context(), adminID, inv.ID, req.Credits, reason); err != nil {
				return respondError(c, err)
			}
		}
	case "reject":
		if err := transitionInvitation(repo, inv, models.InvitationRejected, adminID, req.Note); err != nil {
			return respondError(c, err)
		}
	case "discard":
		if err := transitionInvitation(repo, inv, models.InvitationDiscarded, adminID, req.Note); err != nil {
			return respondError(c, err)
		}
	case "send_magic_link":
		if err := sendMagicLink(repo, inv); err != nil {
			return respondError(c, err)
		}
	default:
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "unknown action")
	}

	return c.JSON(inv)
}

// HandleAdminInvitationBulkApprove approves a set of invitations. Rows are
// independent attempts; one terminal invitation never blocks the rest.
func HandleAdminInvitationBulkApprove(c *fiber.Ctx) error {
	var req bulkApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}
	if len(req.InvitationIDs) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invitation_ids is required")
	}

	repo := repository.GetGlobalFactory().GetInvitationRepository()
	adminID := usercontext.GetUserID(c)

	type itemError struct {
		InvitationID uint   `json:"invitation_id"`
		Message      string `json:"message"`
	}
	var (
		approved   int
		itemErrors []itemError
	)
	for _, id := range req.InvitationIDs {
		inv, err := repo.GetByID(id)
		if err != nil {
			itemErrors = append(itemErrors, itemError{id, "invitation not found"})
			continue
		}
		if err := transitionInvitation(repo, inv, models.InvitationApproved, adminID, req.Note); err != nil {
			itemErrors = append(itemErrors, itemError{id, err.Error()})
			continue
		}
		approved++
	}

	return c.JSON(fiber.Map{
		"requested": len(req.InvitationIDs),
		"approved":  approved,
		"failed":    len(itemErrors),
		"errors":    itemErrors,
	})
}

var errInvalidTransition = errors.New("invitation status cannot change this way")

func transitionInvitation(repo repository.InvitationRepository, inv *models.Invitation, target string, adminID uint, note string) error {
	if !inv.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s to %s", errInvalidTransition, inv.Status, target)
	}
	now := time.Now()
	inv.Status = target
	inv.ReviewedBy = &adminID
	inv.ReviewedAt = &now
	if note != "" {
		inv.ReviewNote = note
	}
	return repo.Update(inv)
}

func sendMagicLink(repo repository.InvitationRepository, inv *models.Invitation) error {
	if inv.Status != models.InvitationApproved {
		return fmt.Errorf("%w: magic link requires an approved invitation", errInvalidTransition)
	}
	token, err := security.GenerateMagicLinkToken(inv.UUID, MagicLinkTTL, env.GetEnv("JWT_SECRET", ""))
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/invitation/redeem?token=%s",
		strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"), token)
	if err := mail.SendMagicLinkEmail(inv.Email, inv.Name, link); err != nil {
		return err
	}
	if err := repo.MarkMagicLinkSent(inv.ID, time.Now()); err != nil {
		logrus.WithError(err).Warn("failed to record magic link send time")
	}
	return nil
}
