package models

import "testing"

func TestInvitationCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{from: InvitationPending, to: InvitationApproved, want: true},
		{from: InvitationPending, to: InvitationRejected, want: true},
		{from: InvitationPending, to: InvitationDiscarded, want: true},
		{from: InvitationApproved, to: InvitationUsed, want: true},
		{from: InvitationApproved, to: InvitationExpired, want: true},
		{from: InvitationUsed, to: InvitationPending, want: false},
		{from: InvitationExpired, to: InvitationPending, want: false},
		{from: InvitationRejected, to: InvitationApproved, want: false},
		{from: InvitationUsed, to: InvitationExpired, want: false},
		{from: InvitationPending, to: InvitationPending, want: false},
		{from: InvitationPending, to: "bogus", want: false},
	}

	for _, tt := range tests {
		inv := Invitation{Status: tt.from}
		if got := inv.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("CanTransitionTo(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestInvitationIsTerminal(t *testing.T) {
	for _, status := range []string{InvitationUsed, InvitationExpired, InvitationRejected, InvitationDiscarded} {
		inv := Invitation{Status: status}
		if !inv.IsTerminal() {
			t.Fatalf("expected status %q to be terminal", status)
		}
	}
	for _, status := range []string{InvitationPending, InvitationApproved} {
		inv := Invitation{Status: status}
		if inv.IsTerminal() {
			t.Fatalf("expected status %q to be non-terminal", status)
		}
	}
}

func TestAllocationAvailable(t *testing.T) {
	a := CreditAllocation{CreditsAllocated: 10, CreditsUsed: 4}
	if got := a.Available(); got != 6 {
		t.Fatalf("Available() = %d, want 6", got)
	}
}

func TestHashOTPCodeIsStable(t *testing.T) {
	if HashOTPCode("123456") != HashOTPCode("123456") {
		t.Fatal("expected identical codes to hash identically")
	}
	if HashOTPCode("123456") == HashOTPCode("654321") {
		t.Fatal("expected different codes to hash differently")
	}
	if len(HashOTPCode("123456")) != 64 {
		t.Fatal("expected hex sha256 digest of length 64")
	}
}
