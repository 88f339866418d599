package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drishiq/drishiq/app/models"
)

type fakeAccountLister struct {
	users []models.User
	err   error
}

func (f *fakeAccountLister) ListActivePaid() ([]models.User, error) {
	return f.users, f.err
}

type fakePlanGranter struct {
	grants []struct {
		UserID    uint
		Amount    int
		Reason    string
		Reference string
	}
	failFor map[uint]error
}

func (f *fakePlanGranter) Grant(ctx context.Context, userID uint, amount int, reason, reference string) error {
	if err, ok := f.failFor[userID]; ok {
		return err
	}
	f.grants = append(f.grants, struct {
		UserID    uint
		Amount    int
		Reason    string
		Reference string
	}{userID, amount, reason, reference})
	return nil
}

func TestGrantMonthlyPlanCredits(t *testing.T) {
	lister := &fakeAccountLister{users: []models.User{
		{ID: 1, Plan: "supporter"},
		{ID: 2, Plan: "enterprise"},
		{ID: 3, Plan: "free"},
	}}
	granter := &fakePlanGranter{}
	now := time.Date(2026, time.September, 1, 2, 0, 0, 0, time.UTC)

	granted, err := GrantMonthlyPlanCredits(context.Background(), lister, granter, now)
	if err != nil {
		t.Fatalf("GrantMonthlyPlanCredits returned error: %v", err)
	}
	if granted != 2 {
		t.Fatalf("granted = %d, want 2", granted)
	}
	if len(granter.grants) != 2 {
		t.Fatalf("unexpected grants: %+v", granter.grants)
	}
	if granter.grants[0].UserID != 1 || granter.grants[0].Amount != 10 {
		t.Errorf("supporter grant = %+v", granter.grants[0])
	}
	if granter.grants[1].UserID != 2 || granter.grants[1].Amount != 50 {
		t.Errorf("enterprise grant = %+v", granter.grants[1])
	}
	for _, g := range granter.grants {
		if g.Reason != models.TxReasonPlanGrant {
			t.Errorf("reason = %q, want %q", g.Reason, models.TxReasonPlanGrant)
		}
		if g.Reference != "plan:2026-09" {
			t.Errorf("reference = %q, want plan:2026-09", g.Reference)
		}
	}
}

func TestGrantMonthlyPlanCreditsContinuesPastFailures(t *testing.T) {
	lister := &fakeAccountLister{users: []models.User{
		{ID: 1, Plan: "supporter"},
		{ID: 2, Plan: "supporter"},
	}}
	granter := &fakePlanGranter{failFor: map[uint]error{1: errors.New("ledger write failed")}}

	granted, err := GrantMonthlyPlanCredits(context.Background(), lister, granter, time.Now())
	if err != nil {
		t.Fatalf("GrantMonthlyPlanCredits returned error: %v", err)
	}
	if granted != 1 {
		t.Fatalf("granted = %d, want 1", granted)
	}
	if len(granter.grants) != 1 || granter.grants[0].UserID != 2 {
		t.Fatalf("unexpected grants: %+v", granter.grants)
	}
}

func TestGrantMonthlyPlanCreditsListFailure(t *testing.T) {
	lister := &fakeAccountLister{err: errors.New("db unavailable")}
	granter := &fakePlanGranter{}

	if _, err := GrantMonthlyPlanCredits(context.Background(), lister, granter, time.Now()); err == nil {
		t.Fatal("expected error when listing accounts fails")
	}
	if len(granter.grants) != 0 {
		t.Fatal("no grants expected when listing fails")
	}
}
