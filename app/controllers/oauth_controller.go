package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/internal/pkg/plans"
	"github.com/drishiq/drishiq/internal/pkg/session"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

// HandleOAuthBegin redirects the browser to the provider's consent screen.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in,
// creating an account and provider link on first sight.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "the sign in could not be completed")
	}

	db := databaseHandle()

	var account models.ProviderAccount
	res := db.Where("provider = ? AND provider_user_id = ?", u.Provider, u.UserID).First(&account)

	var user models.User
	switch {
	case errors.Is(res.Error, gorm.ErrRecordNotFound):
		if u.Email != "" {
			_ = db.Where("email = ?", u.Email).First(&user).Error
		}
		if user.ID == 0 {
			// Random placeholder password; provider login never checks it.
			placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
			hash, _ := models.HashPassword(placeholder)
			email := u.Email
			if email == "" {
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			user = models.User{
				Name:     firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
				Email:    email,
				Password: hash,
				Status:   models.STATUS_ACTIVE,
				Plan:     string(plans.PlanFree),
			}
			if err := db.Create(&user).Error; err != nil {
				return respondError(c, err)
			}
		}
		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		account = models.ProviderAccount{
			UserID:         user.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			AccessToken:    u.AccessToken,
			RefreshToken:   u.RefreshToken,
			ExpiresAt:      exp,
		}
		if err := db.Create(&account).Error; err != nil {
			return respondError(c, err)
		}
	case res.Error == nil:
		account.AccessToken = u.AccessToken
		account.RefreshToken = u.RefreshToken
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			account.ExpiresAt = &t
		} else {
			account.ExpiresAt = nil
		}
		if err := db.Save(&account).Error; err != nil {
			return respondError(c, err)
		}
		if err := db.First(&user, account.UserID).Error; err != nil {
			return respondError(c, err)
		}
	default:
		return respondError(c, res.Error)
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
	_ = session.SetSessionValue(c, "user_plan", effectivePlan(&user))

	if err := db.Model(&user).UpdateColumn("last_login_at", time.Now()).Error; err != nil {
		logrus.Warnf("oauth: updating last login for user %d failed: %v", user.ID, err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleOAuthLogout clears the provider session alongside the app session.
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
