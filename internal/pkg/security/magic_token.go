package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeMagicLink is the only purpose magic-link tokens are issued for.
const PurposeMagicLink = "invitation_magic_link"

var (
	ErrInvalidToken = errors.New("invalid magic link token")
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// MagicLinkClaims carries the invitation reference inside a signed magic-link
// token.
type MagicLinkClaims struct {
	InvitationUUID string `json:"invitation_uuid"`
	Purpose        string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateMagicLinkToken signs a short-lived token redeeming one invitation.
func GenerateMagicLinkToken(invitationUUID string, ttl time.Duration, secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret is required for token generation")
	}
	if strings.TrimSpace(invitationUUID) == "" {
		return "", errors.New("invitation uuid is required")
	}

	now := time.Now()
	claims := MagicLinkClaims{
		InvitationUUID: invitationUUID,
		Purpose:        PurposeMagicLink,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyMagicLinkToken validates signature, expiry and purpose and returns
// the embedded invitation UUID.
func VerifyMagicLinkToken(tokenString, secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret is required for token verification")
	}

	claims := &MagicLinkClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Purpose != PurposeMagicLink {
		return "", ErrWrongPurpose
	}
	if claims.InvitationUUID == "" {
		return "", ErrInvalidToken
	}
	return claims.InvitationUUID, nil
}
