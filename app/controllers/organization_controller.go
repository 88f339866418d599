package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

type organizationCreateRequest struct {
	Name string `json:"name"`
}

// HandleOrganizationCreate creates an organization and makes the caller its
// active owner.
func HandleOrganizationCreate(c *fiber.Ctx) error {
	var req organizationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	userCtx := usercontext.GetUserContext(c)
	org := &models.Organization{
		UUID:    uuid.New().String(),
		Name:    strings.TrimSpace(req.Name),
		OwnerID: userCtx.UserID,
	}
	if err := org.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetOrganizationRepository()
	if err := repo.Create(org); err != nil {
		return respondError(c, err)
	}
	owner := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userCtx.UserID,
		Role:           models.OrgRoleOwner,
		Status:         models.OrgMemberActive,
		InvitedBy:      userCtx.UserID,
	}
	if err := repo.AddMember(owner); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(org)
}

// HandleOrganizationList lists organizations the caller belongs to.
func HandleOrganizationList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	orgs, err := repository.GetGlobalFactory().GetOrganizationRepository().ListByUser(userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": orgs})
}

// HandleOrganizationMembers lists the members of an organization the caller
// belongs to.
func HandleOrganizationMembers(c *fiber.Ctx) error {
	org, _, err := loadOrganizationMembership(c, false)
	if err != nil {
		return respondError(c, err)
	}
	members, err := repository.GetGlobalFactory().GetOrganizationRepository().ListMembers(org.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": members})
}

type memberAddRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleOrganizationMemberAdd invites a registered user into the organization.
func HandleOrganizationMemberAdd(c *fiber.Ctx) error {
	org, actor, err := loadOrganizationMembership(c, true)
	if err != nil {
		return respondError(c, err)
	}
	var req memberAddRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.OrgRoleMember
	}
	if role != models.OrgRoleAdmin && role != models.OrgRoleMember {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "role must be admin or member")
	}

	repos := repository.GetGlobalFactory()
	user, err := repos.GetUserRepository().GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "no account with that email")
		}
		return respondError(c, err)
	}
	if existing, err := repos.GetOrganizationRepository().GetMember(org.ID, user.ID); err == nil && existing.Status != models.OrgMemberRemoved {
		return jsonError(c, fiber.StatusConflict, "conflict", "user is already a member")
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           role,
		Status:         models.OrgMemberInvited,
		InvitedBy:      actor.UserID,
	}
	if err := repos.GetOrganizationRepository().AddMember(member); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

type memberUpdateRequest struct {
	Role   string `json:"role"`
	Status string `json:"status"`
}

// HandleOrganizationMemberUpdate changes a member's role or status. The owner
// membership cannot be demoted or removed.
func HandleOrganizationMemberUpdate(c *fiber.Ctx) error {
	org, _, err := loadOrganizationMembership(c, true)
	if err != nil {
		return respondError(c, err)
	}
	userID, err := c.ParamsInt("userID")
	if err != nil || userID < 1 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid user id")
	}
	var req memberUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetOrganizationRepository()
	member, err := repo.GetMember(org.ID, uint(userID))
	if err != nil {
		return respondError(c, err)
	}
	if member.UserID == org.OwnerID {
		return jsonError(c, fiber.StatusConflict, "conflict", "the owner membership cannot be changed")
	}

	if role := strings.TrimSpace(req.Role); role != "" {
		if role != models.OrgRoleAdmin && role != models.OrgRoleMember {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "role must be admin or member")
		}
		member.Role = role
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		if status != models.OrgMemberActive && status != models.OrgMemberInvited && status != models.OrgMemberRemoved {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "unknown member status")
		}
		member.Status = status
	}
	if err := repo.UpdateMember(member); err != nil {
		return respondError(c, err)
	}
	return c.JSON(member)
}

// HandleOrganizationMemberRemove marks a membership removed.
func HandleOrganizationMemberRemove(c *fiber.Ctx) error {
	org, _, err := loadOrganizationMembership(c, true)
	if err != nil {
		return respondError(c, err)
	}
	userID, err := c.ParamsInt("userID")
	if err != nil || userID < 1 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid user id")
	}

	repo := repository.GetGlobalFactory().GetOrganizationRepository()
	member, err := repo.GetMember(org.ID, uint(userID))
	if err != nil {
		return respondError(c, err)
	}
	if member.UserID == org.OwnerID {
		return jsonError(c, fiber.StatusConflict, "conflict", "the owner membership cannot be removed")
	}
	member.Status = models.OrgMemberRemoved
	if err := repo.UpdateMember(member); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// loadOrganizationMembership resolves the :uuid organization and verifies the
// caller's membership. With manage set, the caller must hold a managing role.
func loadOrganizationMembership(c *fiber.Ctx, manage bool) (*models.Organization, *models.OrganizationMember, error) {
	orgUUID := strings.TrimSpace(c.Params("uuid"))
	repo := repository.GetGlobalFactory().GetOrganizationRepository()
	org, err := repo.GetByUUID(orgUUID)
	if err != nil {
		return nil, nil, err
	}
	userCtx := usercontext.GetUserContext(c)
	member, err := repo.GetMember(org.ID, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) && !userCtx.IsAdmin {
			return nil, nil, gorm.ErrRecordNotFound
		}
		if !userCtx.IsAdmin {
			return nil, nil, err
		}
		// Platform admins may inspect any organization.
		member = &models.OrganizationMember{OrganizationID: org.ID, UserID: userCtx.UserID, Role: models.OrgRoleAdmin, Status: models.OrgMemberActive}
	}
	if member.Status != models.OrgMemberActive && !userCtx.IsAdmin {
		return nil, nil, gorm.ErrRecordNotFound
	}
	if manage && !member.CanManageMembers() && !userCtx.IsAdmin {
		return nil, nil, errForbidden
	}
	return org, member, nil
}
