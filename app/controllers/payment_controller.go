package controllers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/env"
	"github.com/drishiq/drishiq/internal/pkg/payment"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

const webhookSignatureHeader = "X-Webhook-Signature"

// HandlePaymentPackages lists purchasable credit packages.
func HandlePaymentPackages(c *fiber.Ctx) error {
	svc := payment.NewServiceFromDB(databaseHandle(), nil)
	packages, err := svc.ListPackages(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": packages})
}

type chargeRequest struct {
	PackageCode string `json:"package_code"`
	ReturnURL   string `json:"return_url"`
}

// HandlePaymentCharge starts a checkout at the payment processor for the
// selected package. A missing processor configuration answers 503 before any
// work is done; processor failures surface as 502 so clients can retry.
func HandlePaymentCharge(c *fiber.Ctx) error {
	client := payment.NewProcessorClientFromEnv()
	if !client.IsConfigured() {
		return jsonError(c, fiber.StatusServiceUnavailable, "service_unavailable", "payments are not configured")
	}

	var req chargeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	svc := payment.NewServiceFromDB(databaseHandle(), nil)
	pkg, err := svc.GetPackage(c.Context(), strings.TrimSpace(req.PackageCode))
	if err != nil {
		return respondError(c, err)
	}

	userCtx := usercontext.GetUserContext(c)
	charge, err := client.CreateCharge(c.Context(), payment.ChargeRequest{
		UserID:      userCtx.UserID,
		PackageCode: pkg.Code,
		Amount:      pkg.Price,
		Currency:    pkg.Currency,
		ReturnURL:   req.ReturnURL,
	})
	if err != nil {
		logrus.Errorf("payment: creating charge for package %s failed: %v", pkg.Code, err)
		return jsonError(c, fiber.StatusBadGateway, "bad_gateway", "payment processor is unavailable")
	}

	return c.Status(fiber.StatusCreated).JSON(charge)
}

type webhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// HandlePaymentWebhook ingests processor event notifications. Events are
// stored before processing and redeliveries are acknowledged without side
// effects.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	secret := env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")
	if secret == "" {
		return jsonError(c, fiber.StatusServiceUnavailable, "service_unavailable", "webhook intake is not configured")
	}

	body := c.Body()
	signatureValid := payment.VerifyWebhookSignature(body, c.Get(webhookSignatureHeader), secret)

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.ID == "" || envelope.Type == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "event id and type are required")
	}

	granter := credits.NewConsumptionServiceFromDB(databaseHandle())
	svc := payment.NewServiceFromDB(databaseHandle(), granter)
	result, err := svc.HandleWebhook(c.Context(), "processor", envelope.ID, envelope.Type, body, signatureValid)
	if err != nil {
		return respondError(c, err)
	}
	if result.Duplicate {
		return c.JSON(fiber.Map{"status": "already_processed", "event_id": result.EventID})
	}
	return c.JSON(fiber.Map{"status": "ok", "event_id": result.EventID, "handled": result.Handled})
}
