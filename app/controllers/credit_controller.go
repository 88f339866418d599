package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

// HandleCreditBalance returns the user's balance, held and available totals.
func HandleCreditBalance(c *fiber.Ctx) error {
	svc := credits.NewConsumptionServiceFromDB(databaseHandle())
	info, err := svc.Balance(c.Context(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// HandleCreditTransactions lists the user's ledger entries, newest first.
func HandleCreditTransactions(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	svc := credits.NewConsumptionServiceFromDB(databaseHandle())
	transactions, total, err := svc.Transactions(c.Context(), usercontext.GetUserID(c), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": transactions,
		"meta": paginationMeta(page, limit, total),
	})
}
