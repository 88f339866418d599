package otp

import "errors"

var (
	ErrInvalidPurpose   = errors.New("unknown verification purpose")
	ErrInvalidEmail     = errors.New("a valid email address is required")
	ErrCodeInvalid      = errors.New("the verification code is invalid")
	ErrCodeExpired      = errors.New("the verification code has expired")
	ErrTooManyAttempts  = errors.New("too many failed attempts, request a new code")
	ErrDeliveryDisabled = errors.New("code delivery is not configured")
)

// RateLimitError carries the remaining wait when issuance is throttled.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return "too many code requests, slow down"
}
