package mail

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/drishiq/drishiq/internal/pkg/env"
)

// IsConfigured reports whether SMTP delivery is configured. When it is not,
// mail-dependent endpoints degrade instead of failing the whole process.
func IsConfigured() bool {
	return env.GetEnv("SMTP_HOST", "") != "" && env.GetEnv("SMTP_PORT", "") != ""
}

// SendMail delivers one HTML email via SMTP.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "587")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = "no-reply@drishiq.local"
		logrus.Warnf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	smtpPort, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT: %v", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(host, smtpPort, username, password)
	if err := d.DialAndSend(msg); err != nil {
		logrus.WithError(err).Errorf("failed to send email to %s", to)
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}

// SendOTPEmail delivers a verification code with its expiry.
func SendOTPEmail(to, code string, expiresAt time.Time) error {
	subject := "Your DrishiQ verification code"
	body := fmt.Sprintf(
		`<p>Your verification code is:</p><p style="font-size:28px;font-weight:bold;letter-spacing:4px">%s</p><p>The code expires at %s.</p><p>If you did not request this code you can ignore this email.</p>`,
		code, expiresAt.UTC().Format(time.RFC1123),
	)
	return SendMail(to, subject, body)
}

// SendMagicLinkEmail delivers an invitation magic link.
func SendMagicLinkEmail(to, name, link string) error {
	subject := "Your DrishiQ invitation"
	body := fmt.Sprintf(
		`<p>Hello %s,</p><p>Your invitation to DrishiQ has been approved. Use the link below to start your sessions:</p><p><a href="%s">%s</a></p><p>The link is personal and expires after a short while.</p>`,
		name, link, link,
	)
	return SendMail(to, subject, body)
}
