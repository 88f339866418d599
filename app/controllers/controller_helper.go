package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/internal/pkg/bulkimport"
	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/database"
	"github.com/drishiq/drishiq/internal/pkg/otp"
	"github.com/drishiq/drishiq/internal/pkg/payment"
	"github.com/drishiq/drishiq/internal/pkg/security"
)

// databaseHandle exposes the shared GORM handle to the handlers.
func databaseHandle() *gorm.DB {
	return database.GetDB()
}

// errForbidden marks actions the caller's role does not permit.
var errForbidden = errors.New("you do not have permission to do that")

// jsonError writes the standard error envelope.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// respondError maps domain errors onto HTTP statuses. Anything unmapped is a
// 500 with a generic message so internals never leak.
func respondError(c *fiber.Ctx, err error) error {
	var rateErr *otp.RateLimitError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, credits.ErrInvitationNotFound),
		errors.Is(err, credits.ErrReservationNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, credits.ErrInvalidCredits),
		errors.Is(err, credits.ErrEmptyReason),
		errors.Is(err, credits.ErrCategoryMismatch),
		errors.Is(err, otp.ErrInvalidEmail),
		errors.Is(err, otp.ErrInvalidPurpose),
		errors.Is(err, bulkimport.ErrEmptyFile),
		errors.Is(err, bulkimport.ErrNotCSV),
		errors.Is(err, bulkimport.ErrFileTooLarge),
		errors.Is(err, bulkimport.ErrMalformedCSV),
		errors.Is(err, bulkimport.ErrMissingColumns),
		errors.Is(err, bulkimport.ErrTooManyRows):
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrWrongPurpose),
		errors.Is(err, payment.ErrInvalidSignature):
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, errForbidden):
		return jsonError(c, fiber.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, errInvalidTransition),
		errors.Is(err, credits.ErrAllocationRevoked),
		errors.Is(err, credits.ErrInsufficientCredits),
		errors.Is(err, credits.ErrDuplicateReservation),
		errors.Is(err, credits.ErrReservationExpired),
		errors.Is(err, otp.ErrCodeInvalid),
		errors.Is(err, otp.ErrCodeExpired):
		return jsonError(c, fiber.StatusConflict, "conflict", err.Error())
	case errors.Is(err, credits.ErrTooManyReservations),
		errors.Is(err, otp.ErrTooManyAttempts):
		return jsonError(c, fiber.StatusTooManyRequests, "too_many_requests", err.Error())
	case errors.As(err, &rateErr):
		c.Set("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":       "too_many_requests",
			"message":     rateErr.Error(),
			"retry_after": rateErr.RetryAfterSeconds,
		})
	case errors.Is(err, otp.ErrDeliveryDisabled):
		return jsonError(c, fiber.StatusServiceUnavailable, "service_unavailable", err.Error())
	default:
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "something went wrong")
	}
}

// parsePagination reads page/limit query params with sane bounds.
func parsePagination(c *fiber.Ctx) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

// paginationMeta builds the meta block for list responses.
func paginationMeta(page, limit int, total int64) fiber.Map {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return fiber.Map{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": pages,
	}
}
