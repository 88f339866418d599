package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/drishiq/drishiq/internal/pkg/otp"
)

type otpSendRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type otpVerifyRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}

// HandleOTPSend issues a one time code and mails it to the address.
func HandleOTPSend(c *fiber.Ctx) error {
	var req otpSendRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}
	svc := otp.NewServiceFromDB(databaseHandle())
	if _, err := svc.Issue(c.Context(), req.Email, req.Purpose); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "verification code sent",
	})
}

// HandleOTPVerify checks a submitted code and consumes it on success.
func HandleOTPVerify(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}
	svc := otp.NewServiceFromDB(databaseHandle())
	if err := svc.Verify(c.Context(), req.Email, req.Purpose, req.Code); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "code verified",
	})
}
