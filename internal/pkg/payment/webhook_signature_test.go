package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func signHex(payload []byte, secret string, sha512Mode bool) string {
	var mac hashWriter
	if sha512Mode {
		mac = hmac.New(sha512.New, []byte(secret))
	} else {
		mac = hmac.New(sha256.New, []byte(secret))
	}
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"charge_id":"ch_1","user_id":7}`)
	secret := "whsec_test"

	if !VerifyWebhookSignature(payload, signHex(payload, secret, true), secret) {
		t.Error("valid SHA-512 signature rejected")
	}
	if !VerifyWebhookSignature(payload, signHex(payload, secret, false), secret) {
		t.Error("valid SHA-256 fallback signature rejected")
	}
	if VerifyWebhookSignature(payload, signHex(payload, "wrong", true), secret) {
		t.Error("signature with wrong secret accepted")
	}
	if VerifyWebhookSignature([]byte("tampered"), signHex(payload, secret, true), secret) {
		t.Error("signature for different payload accepted")
	}
	if VerifyWebhookSignature(payload, "", secret) {
		t.Error("empty signature accepted")
	}
	if VerifyWebhookSignature(payload, signHex(payload, secret, true), "") {
		t.Error("empty secret accepted")
	}
	if VerifyWebhookSignature(payload, "not-hex!!", secret) {
		t.Error("non-hex signature accepted")
	}
}
