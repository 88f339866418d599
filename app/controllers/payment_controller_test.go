package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// Without PAYMENT_API_KEY and PAYMENT_WEBHOOK_SECRET the payment endpoints
// degrade to 503 before touching the database or the processor.
func TestPaymentEndpointsUnconfigured(t *testing.T) {
	app := fiber.New()
	app.Post("/payments/charge", HandlePaymentCharge)
	app.Post("/payments/webhook", HandlePaymentWebhook)

	req := httptest.NewRequest("POST", "/payments/charge", strings.NewReader(`{"package_code":"starter"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	req = httptest.NewRequest("POST", "/payments/webhook", strings.NewReader(`{"id":"evt_1","type":"charge.succeeded"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
