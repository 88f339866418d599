package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/drishiq/drishiq/internal/pkg/health"
	"github.com/drishiq/drishiq/internal/pkg/statistics"
)

// HandleAdminDashboard returns the aggregate platform statistics.
func HandleAdminDashboard(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "30"))
	data, err := statistics.GetDashboardData(days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(data)
}

// HandleHealth reports component health. A hard dependency outage returns 503
// so load balancers stop routing to the instance.
func HandleHealth(c *fiber.Ctx) error {
	report := health.Check(c.Context())
	status := fiber.StatusOK
	if report.Status == health.StatusUnavailable {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}
