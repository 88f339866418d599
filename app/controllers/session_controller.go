package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/plans"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

type scheduleSessionRequest struct {
	Topic       string     `json:"topic"`
	CreditsCost int        `json:"credits_cost"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// HandleSessionSchedule books a guidance session and places a credit hold
// for it. The hold keeps the credits committed to this session until it
// completes, is cancelled, or the hold expires.
func HandleSessionSchedule(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req scheduleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}
	if req.CreditsCost <= 0 {
		req.CreditsCost = 1
	}

	repo := repository.GetGlobalFactory().GetSessionRepository()
	session := &models.GuidanceSession{
		UUID:        uuid.NewString(),
		UserID:      userCtx.UserID,
		Topic:       strings.TrimSpace(req.Topic),
		Status:      models.SessionScheduled,
		CreditsCost: req.CreditsCost,
		ScheduledAt: req.ScheduledAt,
	}
	if err := repo.Create(session); err != nil {
		return respondError(c, err)
	}

	svc := credits.NewConsumptionServiceFromDB(databaseHandle())
	maxHolds := plans.MaxActiveReservations(plans.Normalize(userCtx.Plan))
	hold, err := svc.Reserve(c.Context(), userCtx.UserID, session.ID, session.CreditsCost, credits.DefaultHoldTTL, maxHolds)
	if err != nil {
		// No credits, no booking.
		session.Status = models.SessionCancelled
		_ = repo.Update(session)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session":     session,
		"reservation": hold,
	})
}

// HandleSessionComplete finishes a session and commits its credit hold.
func HandleSessionComplete(c *fiber.Ctx) error {
	session, err := loadOwnSession(c)
	if err != nil {
		return respondError(c, err)
	}
	if session.Status != models.SessionScheduled && session.Status != models.SessionInProgress {
		return jsonError(c, fiber.StatusConflict, "conflict", "session is already closed")
	}

	svc := credits.NewConsumptionServiceFromDB(databaseHandle())
	if err := svc.Complete(c.Context(), session.UserID, session.ID); err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	session.Status = models.SessionCompleted
	session.CompletedAt = &now
	repo := repository.GetGlobalFactory().GetSessionRepository()
	if err := repo.Update(session); err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// HandleSessionCancel cancels a session and releases its hold uncharged.
func HandleSessionCancel(c *fiber.Ctx) error {
	session, err := loadOwnSession(c)
	if err != nil {
		return respondError(c, err)
	}
	if session.Status != models.SessionScheduled && session.Status != models.SessionInProgress {
		return jsonError(c, fiber.StatusConflict, "conflict", "session is already closed")
	}

	svc := credits.NewConsumptionServiceFromDB(databaseHandle())
	if err := svc.Release(c.Context(), session.UserID, session.ID); err != nil &&
		!errors.Is(err, credits.ErrReservationNotFound) {
		return respondError(c, err)
	}

	session.Status = models.SessionCancelled
	repo := repository.GetGlobalFactory().GetSessionRepository()
	if err := repo.Update(session); err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// HandleSessionList lists the user's sessions.
func HandleSessionList(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	repo := repository.GetGlobalFactory().GetSessionRepository()
	sessions, total, err := repo.ListByUser(usercontext.GetUserID(c), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": sessions,
		"meta": paginationMeta(page, limit, total),
	})
}

func loadOwnSession(c *fiber.Ctx) (*models.GuidanceSession, error) {
	repo := repository.GetGlobalFactory().GetSessionRepository()
	session, err := repo.GetByUUID(strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	userCtx := usercontext.GetUserContext(c)
	if session.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, gorm.ErrRecordNotFound
	}
	return session, nil
}
