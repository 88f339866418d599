package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/internal/pkg/mail"
)

const (
	// CodeLength is the number of digits in an issued code.
	CodeLength = 6
	// DefaultTTL is how long an issued code stays verifiable.
	DefaultTTL = 10 * time.Minute
	// MaxAttempts caps failed verifications per code before it is burned.
	MaxAttempts = 5
	// Issuance rate limit: at most maxPerWindow sends per email and purpose
	// within rateWindow.
	maxPerWindow = 3
	rateWindow   = 10 * time.Minute
)

var validPurposes = map[string]bool{
	models.OTPPurposeSignup:        true,
	models.OTPPurposeLogin:         true,
	models.OTPPurposePasswordReset: true,
	models.OTPPurposePhoneVerify:   true,
}

// Limiter throttles code issuance per key. Bump returns the request count in
// the current window and how long until the window resets.
type Limiter interface {
	Bump(ctx context.Context, key string, window time.Duration) (count int64, retryAfter time.Duration, err error)
}

// Sender delivers an issued code to the recipient.
type Sender interface {
	SendCode(to, code string, expiresAt time.Time) error
}

type mailSender struct{}

func (mailSender) SendCode(to, code string, expiresAt time.Time) error {
	if !mail.IsConfigured() {
		return ErrDeliveryDisabled
	}
	return mail.SendOTPEmail(to, code, expiresAt)
}

// Service issues and verifies single-use codes. Codes are stored hashed; the
// plain code exists only in the delivery message.
type Service struct {
	repo    Repository
	limiter Limiter
	sender  Sender
	ttl     time.Duration
}

func NewService(repo Repository, limiter Limiter, sender Sender) *Service {
	if sender == nil {
		sender = mailSender{}
	}
	return &Service{repo: repo, limiter: limiter, sender: sender, ttl: DefaultTTL}
}

func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), NewRedisLimiter(), nil)
}

// Issue generates a fresh code, stores its hash and sends it. A previously
// issued open code stays valid until it expires or the new one is verified.
func (s *Service) Issue(ctx context.Context, email, purpose string) (*models.OTPCode, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if !validPurposes[purpose] {
		return nil, ErrInvalidPurpose
	}

	if s.limiter != nil {
		key := fmt.Sprintf("otp:rl:%s:%s", purpose, email)
		count, retryAfter, err := s.limiter.Bump(ctx, key, rateWindow)
		if err != nil {
			logrus.WithError(err).Warn("otp rate limiter unavailable, allowing request")
		} else if count > maxPerWindow {
			return nil, &RateLimitError{RetryAfterSeconds: int(retryAfter.Seconds())}
		}
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	record := &models.OTPCode{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  models.HashOTPCode(code),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.repo.CreateCode(ctx, record); err != nil {
		return nil, err
	}
	if err := s.sender.SendCode(email, code, record.ExpiresAt); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"email":   email,
		"purpose": purpose,
	}).Info("verification code issued")
	return record, nil
}

// Verify checks the submitted code against the most recent open code. A
// correct code is consumed and never matches again; a wrong one counts
// toward the attempt cap.
func (s *Service) Verify(ctx context.Context, email, purpose, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if !validPurposes[purpose] {
		return ErrInvalidPurpose
	}

	record, err := s.repo.LatestOpenCode(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeInvalid
		}
		return err
	}
	if record.IsExpired(time.Now()) {
		return ErrCodeExpired
	}
	if record.Attempts >= MaxAttempts {
		return ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(record.CodeHash), []byte(models.HashOTPCode(code))) != 1 {
		if err := s.repo.IncrementAttempts(ctx, record.ID); err != nil {
			return err
		}
		if record.Attempts+1 >= MaxAttempts {
			return ErrTooManyAttempts
		}
		return ErrCodeInvalid
	}

	if err := s.repo.MarkConsumed(ctx, record.ID, time.Now()); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"email":   email,
		"purpose": purpose,
	}).Info("verification code accepted")
	return nil
}

// PurgeExpired removes codes past their expiry. Run from the scheduler.
func (s *Service) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(ctx, now)
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}
