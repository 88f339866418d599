package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/env"
	"github.com/drishiq/drishiq/internal/pkg/hcaptcha"
	"github.com/drishiq/drishiq/internal/pkg/mail"
	"github.com/drishiq/drishiq/internal/pkg/plans"
	"github.com/drishiq/drishiq/internal/pkg/session"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

type registerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Language      string `json:"language"`
	CaptchaToken  string `json:"captcha_token"`
	InvitationKey string `json:"invitation_code,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates an inactive account and mails the activation
// link. Registration through an invitation code redeems the invitation after
// activation, not here.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	if hcaptcha.Enabled() {
		ok, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !ok {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "captcha verification failed")
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(email); err == nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, err)
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}
	if req.Language != "" {
		user.Language = req.Language
	}
	if err := user.GenerateActivationToken(); err != nil {
		return respondError(c, err)
	}
	if err := repo.Create(user); err != nil {
		return respondError(c, err)
	}

	if mail.IsConfigured() {
		link := fmt.Sprintf("%s/api/v1/auth/activate?token=%s",
			strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"), user.ActivationToken)
		if err := mail.SendMail(user.Email, "Activate your account",
			fmt.Sprintf("Hello %s,\n\nplease activate your account:\n%s\n", user.Name, link)); err != nil {
			logrus.WithError(err).Warn("failed to send activation email")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     user.ID,
		"email":  user.Email,
		"status": user.Status,
	})
}

// HandleAuthActivate flips an inactive account to active via its token.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "token is required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "invalid activation token")
		}
		return respondError(c, err)
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": user.Status})
}

// HandleAuthLogin verifies credentials and opens a session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	// A failed lookup and a wrong password answer identically.
	if err != nil || !models.CheckPasswordHash(req.Password, user.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "invalid credentials")
	}
	if user.Status == models.STATUS_DISABLED {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "this account is disabled")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return respondError(c, err)
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		return respondError(c, err)
	}
	_ = session.SetSessionValue(c, "user_plan", effectivePlan(user))

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		logrus.WithError(err).Warn("failed to record login time")
	}

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"role":     user.Role,
		"plan":     user.Plan,
		"is_admin": user.Role == models.ROLE_ADMIN,
	})
}

// effectivePlan resolves the plan carried on the session. An organization
// membership lifts the account to the organization's plan when it outranks
// the user's own.
func effectivePlan(user *models.User) string {
	own := plans.Normalize(user.Plan)
	orgs, err := repository.GetGlobalFactory().GetOrganizationRepository().ListByUser(user.ID)
	if err != nil {
		logrus.WithError(err).Warn("failed to resolve organization plans")
		return string(own)
	}
	memberships := make([]plans.Plan, 0, len(orgs))
	for _, org := range orgs {
		memberships = append(memberships, plans.Normalize(org.Plan))
	}
	return string(plans.Effective(own, memberships...))
}

// HandleAuthLogout destroys the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// HandleAuthMe returns the account behind the current session.
func HandleAuthMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"role":     user.Role,
		"plan":     user.Plan,
		"status":   user.Status,
		"language": user.Language,
	})
}
