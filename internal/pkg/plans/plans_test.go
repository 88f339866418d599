package plans

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "free", want: PlanFree},
		{in: "supporter", want: PlanSupporter},
		{in: "enterprise", want: PlanEnterprise},
		{in: " Enterprise ", want: PlanEnterprise},
		{in: "SUPPORTER", want: PlanSupporter},
		{in: "invalid", want: PlanFree},
		{in: "", want: PlanFree},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	if Rank(PlanFree) >= Rank(PlanSupporter) {
		t.Fatalf("expected supporter to outrank free")
	}
	if Rank(PlanSupporter) >= Rank(PlanEnterprise) {
		t.Fatalf("expected enterprise to outrank supporter")
	}
}

func TestEffective(t *testing.T) {
	tests := []struct {
		name        string
		own         Plan
		memberships []Plan
		want        Plan
	}{
		{name: "no memberships keeps own plan", own: PlanSupporter, want: PlanSupporter},
		{name: "organization lifts a free account", own: PlanFree, memberships: []Plan{PlanEnterprise}, want: PlanEnterprise},
		{name: "own plan wins over lower membership", own: PlanEnterprise, memberships: []Plan{PlanSupporter}, want: PlanEnterprise},
		{name: "highest of several memberships", own: PlanFree, memberships: []Plan{PlanSupporter, PlanEnterprise, PlanFree}, want: PlanEnterprise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Effective(tt.own, tt.memberships...); got != tt.want {
				t.Fatalf("Effective(%q, %v) = %q, want %q", tt.own, tt.memberships, got, tt.want)
			}
		})
	}
}

func TestLimitsGrowWithPlan(t *testing.T) {
	if MonthlyCredits(PlanFree) > MonthlyCredits(PlanSupporter) {
		t.Fatal("free plan must not grant more monthly credits than supporter")
	}
	if MaxActiveReservations(PlanSupporter) > MaxActiveReservations(PlanEnterprise) {
		t.Fatal("supporter plan must not allow more holds than enterprise")
	}
	if BulkImportRowLimit(PlanFree) > BulkImportRowLimit(PlanEnterprise) {
		t.Fatal("free plan must not allow larger imports than enterprise")
	}
}
