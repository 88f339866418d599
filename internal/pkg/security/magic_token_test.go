package security

import (
	"testing"
	"time"
)

const testSecret = "test-signing-secret"

func TestMagicLinkTokenRoundTrip(t *testing.T) {
	token, err := GenerateMagicLinkToken("11111111-2222-3333-4444-555555555555", time.Hour, testSecret)
	if err != nil {
		t.Fatalf("GenerateMagicLinkToken returned error: %v", err)
	}

	uuid, err := VerifyMagicLinkToken(token, testSecret)
	if err != nil {
		t.Fatalf("VerifyMagicLinkToken returned error: %v", err)
	}
	if uuid != "11111111-2222-3333-4444-555555555555" {
		t.Fatalf("unexpected invitation uuid: %s", uuid)
	}
}

func TestMagicLinkTokenExpired(t *testing.T) {
	token, err := GenerateMagicLinkToken("expired-uuid", -time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateMagicLinkToken returned error: %v", err)
	}

	if _, err := VerifyMagicLinkToken(token, testSecret); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestMagicLinkTokenWrongSecret(t *testing.T) {
	token, err := GenerateMagicLinkToken("some-uuid", time.Hour, testSecret)
	if err != nil {
		t.Fatalf("GenerateMagicLinkToken returned error: %v", err)
	}

	if _, err := VerifyMagicLinkToken(token, "other-secret"); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestMagicLinkTokenGarbage(t *testing.T) {
	if _, err := VerifyMagicLinkToken("not-a-token", testSecret); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}

func TestMagicLinkTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateMagicLinkToken("uuid", time.Hour, ""); err == nil {
		t.Fatal("expected error when signing without a secret")
	}
	if _, err := VerifyMagicLinkToken("token", " "); err == nil {
		t.Fatal("expected error when verifying without a secret")
	}
}
