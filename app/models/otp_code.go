package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// OTP purposes accepted by the verification endpoints.
const (
	OTPPurposeSignup        = "signup"
	OTPPurposeLogin         = "login"
	OTPPurposePasswordReset = "password_reset"
	OTPPurposePhoneVerify   = "phone_verify"
)

// OTPCode stores one issued verification code. Only the SHA-256 hash of the
// code is persisted. A code is single-use: ConsumedAt is set on successful
// verification and the row is never matched again.
type OTPCode struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Email      string     `gorm:"type:varchar(200);not null;index:idx_otp_email_purpose" json:"email"`
	Phone      string     `gorm:"type:varchar(30);default:''" json:"phone,omitempty"`
	Purpose    string     `gorm:"type:varchar(50);not null;index:idx_otp_email_purpose" json:"purpose"`
	CodeHash   string     `gorm:"type:varchar(64);not null" json:"-"`
	Attempts   int        `gorm:"not null;default:0" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}

// HashOTPCode returns the hex SHA-256 digest stored for a code.
func HashOTPCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// IsExpired reports whether the code passed its expiry.
func (o *OTPCode) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
