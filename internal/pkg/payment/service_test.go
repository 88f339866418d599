package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

type fakePaymentRepo struct {
	events   map[string]*models.PaymentWebhookEvent
	packages map[string]*models.CreditPackage
	users    map[uint]*models.User
	nextID   uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		events:   make(map[string]*models.PaymentWebhookEvent),
		packages: make(map[string]*models.CreditPackage),
		users:    make(map[uint]*models.User),
	}
}

func (f *fakePaymentRepo) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := f.events[key]; ok {
		cp := *existing
		return false, &cp, nil
	}
	f.nextID++
	event.ID = f.nextID
	cp := *event
	f.events[key] = &cp
	out := cp
	return true, &out, nil
}

func (f *fakePaymentRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.ProcessingError = processingError
			if processingError == "" {
				now := time.Now()
				e.ProcessedAt = &now
			}
			return nil
		}
	}
	return errors.New("event not found")
}

func (f *fakePaymentRepo) ListActivePackages() ([]models.CreditPackage, error) {
	var out []models.CreditPackage
	for _, p := range f.packages {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) GetPackageByCode(code string) (*models.CreditPackage, error) {
	p, ok := f.packages[code]
	if !ok || !p.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

type recordingGranter struct {
	grants []struct {
		UserID uint
		Amount int
	}
}

func (g *recordingGranter) Grant(ctx context.Context, userID uint, amount int, reason, reference string) error {
	g.grants = append(g.grants, struct {
		UserID uint
		Amount int
	}{userID, amount})
	return nil
}

func setupPaymentFixtures() (*fakePaymentRepo, *recordingGranter, *Service) {
	repo := newFakePaymentRepo()
	repo.packages["starter"] = &models.CreditPackage{ID: 1, Code: "starter", Credits: 25, IsActive: true}
	repo.users[7] = &models.User{ID: 7, Email: "a@example.com"}
	granter := &recordingGranter{}
	return repo, granter, NewService(repo, granter)
}

func TestHandleWebhookGrantsOnce(t *testing.T) {
	_, granter, svc := setupPaymentFixtures()
	ctx := context.Background()
	payload := []byte(`{"charge_id":"ch_1","user_id":7,"package_code":"starter"}`)

	res, err := svc.HandleWebhook(ctx, "processor", "evt_1", EventChargeSucceeded, payload, true)
	if err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	if !res.Handled || res.Duplicate {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(granter.grants) != 1 || granter.grants[0].Amount != 25 || granter.grants[0].UserID != 7 {
		t.Fatalf("unexpected grants: %+v", granter.grants)
	}

	// Redelivery of the same event is acknowledged but grants nothing.
	res, err = svc.HandleWebhook(ctx, "processor", "evt_1", EventChargeSucceeded, payload, true)
	if err != nil {
		t.Fatalf("redelivered HandleWebhook returned error: %v", err)
	}
	if !res.Duplicate {
		t.Fatal("expected duplicate flag on redelivery")
	}
	if len(granter.grants) != 1 {
		t.Fatalf("redelivery granted credits again: %+v", granter.grants)
	}
}

func TestHandleWebhookRetriesFailedEvent(t *testing.T) {
	repo, granter, svc := setupPaymentFixtures()
	ctx := context.Background()
	payload := []byte(`{"charge_id":"ch_9","user_id":7,"package_code":"pro"}`)

	// First delivery fails because the package does not exist yet.
	_, err := svc.HandleWebhook(ctx, "processor", "evt_9", EventChargeSucceeded, payload, true)
	if !errors.Is(err, ErrUnknownPackage) {
		t.Fatalf("expected ErrUnknownPackage, got %v", err)
	}
	if len(granter.grants) != 0 {
		t.Fatalf("failed delivery must not grant: %+v", granter.grants)
	}

	// The processor redelivers after the catalog is fixed. The stored event
	// was never processed, so the retry grants the credits.
	repo.packages["pro"] = &models.CreditPackage{ID: 2, Code: "pro", Credits: 60, IsActive: true}
	res, err := svc.HandleWebhook(ctx, "processor", "evt_9", EventChargeSucceeded, payload, true)
	if err != nil {
		t.Fatalf("redelivered HandleWebhook returned error: %v", err)
	}
	if res.Duplicate || !res.Handled {
		t.Fatalf("unexpected retry result: %+v", res)
	}
	if len(granter.grants) != 1 || granter.grants[0].Amount != 60 {
		t.Fatalf("unexpected grants after retry: %+v", granter.grants)
	}

	// A third delivery of the now-processed event is a plain duplicate.
	res, err = svc.HandleWebhook(ctx, "processor", "evt_9", EventChargeSucceeded, payload, true)
	if err != nil {
		t.Fatalf("duplicate HandleWebhook returned error: %v", err)
	}
	if !res.Duplicate {
		t.Fatal("expected duplicate flag once the event is processed")
	}
	if len(granter.grants) != 1 {
		t.Fatalf("duplicate granted credits again: %+v", granter.grants)
	}
}

func TestHandleWebhookInvalidSignature(t *testing.T) {
	repo, granter, svc := setupPaymentFixtures()
	ctx := context.Background()

	_, err := svc.HandleWebhook(ctx, "processor", "evt_2", EventChargeSucceeded, []byte(`{}`), false)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(granter.grants) != 0 {
		t.Fatal("invalid signature must not grant credits")
	}
	// The event is still recorded for the audit trail.
	if len(repo.events) != 1 {
		t.Fatalf("expected 1 stored event, have %d", len(repo.events))
	}
}

func TestHandleWebhookUnknownPackage(t *testing.T) {
	_, granter, svc := setupPaymentFixtures()
	ctx := context.Background()
	payload := []byte(`{"charge_id":"ch_1","user_id":7,"package_code":"missing"}`)

	_, err := svc.HandleWebhook(ctx, "processor", "evt_3", EventChargeSucceeded, payload, true)
	if !errors.Is(err, ErrUnknownPackage) {
		t.Fatalf("expected ErrUnknownPackage, got %v", err)
	}
	if len(granter.grants) != 0 {
		t.Fatal("unknown package must not grant credits")
	}
}

func TestHandleWebhookIgnoredEventTypes(t *testing.T) {
	_, granter, svc := setupPaymentFixtures()
	ctx := context.Background()

	res, err := svc.HandleWebhook(ctx, "processor", "evt_4", EventChargeFailed, []byte(`{}`), true)
	if err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	if res.Handled {
		t.Fatal("charge.failed must not be marked handled")
	}
	if len(granter.grants) != 0 {
		t.Fatal("non-success events must not grant credits")
	}
}

func TestHandleWebhookMissingIdentifiers(t *testing.T) {
	_, _, svc := setupPaymentFixtures()
	if _, err := svc.HandleWebhook(context.Background(), "", "evt", EventChargeSucceeded, nil, true); !errors.Is(err, ErrMissingEventID) {
		t.Fatalf("expected ErrMissingEventID, got %v", err)
	}
}
