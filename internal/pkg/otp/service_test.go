package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

type fakeOTPRepo struct {
	codes  []*models.OTPCode
	nextID uint
}

func (f *fakeOTPRepo) CreateCode(ctx context.Context, code *models.OTPCode) error {
	f.nextID++
	code.ID = f.nextID
	code.CreatedAt = time.Now()
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeOTPRepo) LatestOpenCode(ctx context.Context, email, purpose string) (*models.OTPCode, error) {
	for i := len(f.codes) - 1; i >= 0; i-- {
		c := f.codes[i]
		if c.Email == email && c.Purpose == purpose && c.ConsumedAt == nil {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOTPRepo) IncrementAttempts(ctx context.Context, id uint) error {
	for _, c := range f.codes {
		if c.ID == id {
			c.Attempts++
		}
	}
	return nil
}

func (f *fakeOTPRepo) MarkConsumed(ctx context.Context, id uint, at time.Time) error {
	for _, c := range f.codes {
		if c.ID == id && c.ConsumedAt == nil {
			c.ConsumedAt = &at
		}
	}
	return nil
}

func (f *fakeOTPRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	kept := f.codes[:0]
	var deleted int64
	for _, c := range f.codes {
		if c.ExpiresAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	f.codes = kept
	return deleted, nil
}

type fakeLimiter struct {
	count int64
}

func (l *fakeLimiter) Bump(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	l.count++
	return l.count, window, nil
}

type captureSender struct {
	lastCode string
	lastTo   string
}

func (c *captureSender) SendCode(to, code string, expiresAt time.Time) error {
	c.lastTo = to
	c.lastCode = code
	return nil
}

func TestIssueAndVerify(t *testing.T) {
	repo := &fakeOTPRepo{}
	sender := &captureSender{}
	svc := NewService(repo, nil, sender)
	ctx := context.Background()

	record, err := svc.Issue(ctx, "Asha@Example.com ", models.OTPPurposeSignup)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if sender.lastTo != "asha@example.com" {
		t.Fatalf("sent to %q, want normalized address", sender.lastTo)
	}
	if len(sender.lastCode) != CodeLength {
		t.Fatalf("code length = %d, want %d", len(sender.lastCode), CodeLength)
	}
	if record.CodeHash != models.HashOTPCode(sender.lastCode) {
		t.Fatal("stored hash does not match the delivered code")
	}

	if err := svc.Verify(ctx, "asha@example.com", models.OTPPurposeSignup, sender.lastCode); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
}

func TestVerifyIsSingleUse(t *testing.T) {
	repo := &fakeOTPRepo{}
	sender := &captureSender{}
	svc := NewService(repo, nil, sender)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "a@example.com", models.OTPPurposeLogin); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if err := svc.Verify(ctx, "a@example.com", models.OTPPurposeLogin, sender.lastCode); err != nil {
		t.Fatalf("first Verify returned error: %v", err)
	}
	if err := svc.Verify(ctx, "a@example.com", models.OTPPurposeLogin, sender.lastCode); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("replay must fail with ErrCodeInvalid, got %v", err)
	}
}

func TestVerifyWrongCodeCountsAttempts(t *testing.T) {
	repo := &fakeOTPRepo{}
	sender := &captureSender{}
	svc := NewService(repo, nil, sender)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "a@example.com", models.OTPPurposeLogin); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	for i := 0; i < MaxAttempts-1; i++ {
		if err := svc.Verify(ctx, "a@example.com", models.OTPPurposeLogin, "000000"); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("attempt %d: expected ErrCodeInvalid, got %v", i, err)
		}
	}
	if err := svc.Verify(ctx, "a@example.com", models.OTPPurposeLogin, "000000"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts at the cap, got %v", err)
	}
	// The burnt code no longer works even when the guess is right.
	if err := svc.Verify(ctx, "a@example.com", models.OTPPurposeLogin, sender.lastCode); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts after cap, got %v", err)
	}
}

func TestVerifyRejectsNearMissCode(t *testing.T) {
	repo := &fakeOTPRepo{}
	sender := &captureSender{}
	svc := NewService(repo, nil, sender)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "a@example.com", models.OTPPurposeLogin); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	// Flip the last digit so the guess shares a long prefix with the code.
	guess := []byte(sender.lastCode)
	guess[len(guess)-1] = '0' + (guess[len(guess)-1]-'0'+1)%10
	if err := svc.Verify(ctx, "a@example.com", models.OTPPurposeLogin, string(guess)); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid for near-miss, got %v", err)
	}
	if err := svc.Verify(ctx, "a@example.com", models.OTPPurposeLogin, sender.lastCode); err != nil {
		t.Fatalf("correct code rejected after near-miss: %v", err)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	repo := &fakeOTPRepo{}
	sender := &captureSender{}
	svc := NewService(repo, nil, sender)
	svc.ttl = -time.Minute
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "a@example.com", models.OTPPurposeLogin); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if err := svc.Verify(ctx, "a@example.com", models.OTPPurposeLogin, sender.lastCode); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestIssueRateLimited(t *testing.T) {
	repo := &fakeOTPRepo{}
	svc := NewService(repo, &fakeLimiter{}, &captureSender{})
	ctx := context.Background()

	for i := 0; i < maxPerWindow; i++ {
		if _, err := svc.Issue(ctx, "a@example.com", models.OTPPurposeSignup); err != nil {
			t.Fatalf("issue %d returned error: %v", i, err)
		}
	}
	_, err := svc.Issue(ctx, "a@example.com", models.OTPPurposeSignup)
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfterSeconds <= 0 {
		t.Fatalf("RetryAfterSeconds = %d, want positive", rl.RetryAfterSeconds)
	}
}

func TestIssueValidation(t *testing.T) {
	svc := NewService(&fakeOTPRepo{}, nil, &captureSender{})
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "not-an-email", models.OTPPurposeSignup); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Issue(ctx, "a@example.com", "espionage"); !errors.Is(err, ErrInvalidPurpose) {
		t.Fatalf("expected ErrInvalidPurpose, got %v", err)
	}
}
