package credits

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// memRepository is an in-memory Repository with the same conditional-write
// semantics as the GORM implementation.
type memRepository struct {
	mu           sync.Mutex
	invitations  map[uint]*models.Invitation
	allocations  map[uint]*models.CreditAllocation
	transactions []models.CreditTransaction
	reservations []*models.CreditReservation
	nextID       uint
}

func newMemRepository() *memRepository {
	return &memRepository{
		invitations: make(map[uint]*models.Invitation),
		allocations: make(map[uint]*models.CreditAllocation),
	}
}

func (m *memRepository) addInvitation(id uint, category string) *models.Invitation {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv := &models.Invitation{ID: id, UUID: "uuid-" + string(rune('0'+id%10)), Category: category, Status: models.InvitationApproved}
	m.invitations[id] = inv
	return inv
}

func (m *memRepository) GetInvitationByID(id uint) (*models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memRepository) GetInvitationsByIDs(ids []uint) ([]models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Invitation
	for _, id := range ids {
		if inv, ok := m.invitations[id]; ok {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memRepository) SaveInvitation(inv *models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	m.invitations[inv.ID] = &cp
	return nil
}

func (m *memRepository) GetAllocationByInvitationID(invitationID uint) (*models.CreditAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.allocations[invitationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepository) CreateAllocation(a *models.CreditAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.allocations[a.InvitationID]; exists {
		return errors.New("duplicate allocation row")
	}
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.allocations[a.InvitationID] = &cp
	return nil
}

func (m *memRepository) IncrementAllocation(invitationID uint, credits int, reason string, actorID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.allocations[invitationID]
	if !ok || a.Status == models.AllocationRevoked {
		return false, nil
	}
	a.CreditsAllocated += credits
	a.Status = models.AllocationActive
	a.Reason = reason
	a.UpdatedBy = actorID
	return true, nil
}

func (m *memRepository) ConsumeAllocation(invitationID uint, credits int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.allocations[invitationID]
	if !ok || a.Status != models.AllocationActive || a.CreditsAllocated-a.CreditsUsed < credits {
		return false, nil
	}
	if a.CreditsAllocated-a.CreditsUsed-credits <= 0 {
		a.Status = models.AllocationExhausted
	}
	a.CreditsUsed += credits
	return true, nil
}

func (m *memRepository) RevokeAllocation(invitationID uint, actorID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.allocations[invitationID]
	if !ok || a.Status == models.AllocationRevoked {
		return false, nil
	}
	a.Status = models.AllocationRevoked
	a.UpdatedBy = actorID
	return true, nil
}

func (m *memRepository) AppendTransaction(tx *models.CreditTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tx.ID = m.nextID
	m.transactions = append(m.transactions, *tx)
	return nil
}

func (m *memRepository) SumTransactions(userID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sumTransactionsLocked(userID), nil
}

func (m *memRepository) sumTransactionsLocked(userID uint) int {
	sum := 0
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum
}

func (m *memRepository) ListTransactions(userID uint, offset, limit int) ([]models.CreditTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.CreditTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].UserID == userID {
			all = append(all, m.transactions[i])
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memRepository) sumHeldLocked(userID uint, now time.Time) int {
	sum := 0
	for _, r := range m.reservations {
		if r.UserID == userID && r.Status == models.ReservationHeld && r.ExpiresAt.After(now) {
			sum += r.Amount
		}
	}
	return sum
}

func (m *memRepository) CreateHold(userID, sessionID uint, amount int, expiresAt time.Time) (*models.CreditReservation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	available := m.sumTransactionsLocked(userID) - m.sumHeldLocked(userID, now)
	if available < amount {
		return nil, false, nil
	}
	m.nextID++
	hold := &models.CreditReservation{
		ID:        m.nextID,
		UserID:    userID,
		SessionID: sessionID,
		Amount:    amount,
		Status:    models.ReservationHeld,
		ExpiresAt: expiresAt,
	}
	m.reservations = append(m.reservations, hold)
	cp := *hold
	return &cp, true, nil
}

func (m *memRepository) GetHold(userID, sessionID uint) (*models.CreditReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.reservations) - 1; i >= 0; i-- {
		r := m.reservations[i]
		if r.UserID == userID && r.SessionID == sessionID && r.Status == models.ReservationHeld {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepository) CountHeld(userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var count int64
	for _, r := range m.reservations {
		if r.UserID == userID && r.Status == models.ReservationHeld && r.ExpiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

func (m *memRepository) SumHeld(userID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sumHeldLocked(userID, time.Now()), nil
}

func (m *memRepository) CommitHold(id uint, debit *models.CreditTransaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.ID == id && r.Status == models.ReservationHeld {
			r.Status = models.ReservationCommitted
			m.nextID++
			debit.ID = m.nextID
			m.transactions = append(m.transactions, *debit)
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepository) ReleaseHold(id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.ID == id && r.Status == models.ReservationHeld {
			r.Status = models.ReservationReleased
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepository) ReleaseExpiredHolds(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var released int64
	for _, r := range m.reservations {
		if r.Status == models.ReservationHeld && !r.ExpiresAt.After(now) {
			r.Status = models.ReservationReleased
			released++
		}
	}
	return released, nil
}

func TestAllocateCreatesLedgerRow(t *testing.T) {
	repo := newMemRepository()
	repo.addInvitation(1, models.CategoryTrialAccess)
	svc := NewAllocationService(repo)

	res, err := svc.Allocate(context.Background(), 99, 1, 5, "trial approval")
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if !res.Created {
		t.Fatal("expected first allocation to create the row")
	}
	if res.Allocation.CreditsAllocated != 5 || res.Allocation.CreditsUsed != 0 {
		t.Fatalf("unexpected allocation state: allocated=%d used=%d", res.Allocation.CreditsAllocated, res.Allocation.CreditsUsed)
	}
	if res.Available != 5 {
		t.Fatalf("Available = %d, want 5", res.Available)
	}
	if res.Allocation.CreatedBy != 99 {
		t.Fatalf("CreatedBy = %d, want 99", res.Allocation.CreatedBy)
	}
}

func TestAllocateIsCumulative(t *testing.T) {
	repo := newMemRepository()
	repo.addInvitation(1, models.CategoryNeedSupport)
	svc := NewAllocationService(repo)
	ctx := context.Background()

	if _, err := svc.Allocate(ctx, 1, 1, 3, "first"); err != nil {
		t.Fatalf("first Allocate returned error: %v", err)
	}
	res, err := svc.Allocate(ctx, 2, 1, 4, "second")
	if err != nil {
		t.Fatalf("second Allocate returned error: %v", err)
	}
	if res.Created {
		t.Fatal("second allocation must not create a new row")
	}
	if res.Allocation.CreditsAllocated != 7 {
		t.Fatalf("CreditsAllocated = %d, want 7 (cumulative)", res.Allocation.CreditsAllocated)
	}
	if res.Allocation.CreditsUsed != 0 {
		t.Fatalf("CreditsUsed changed on re-allocation: %d", res.Allocation.CreditsUsed)
	}
	if res.Allocation.UpdatedBy != 2 {
		t.Fatalf("UpdatedBy = %d, want 2", res.Allocation.UpdatedBy)
	}
}

func TestAllocateValidation(t *testing.T) {
	repo := newMemRepository()
	repo.addInvitation(1, models.CategoryGeneral)
	svc := NewAllocationService(repo)
	ctx := context.Background()

	if _, err := svc.Allocate(ctx, 1, 1, 0, "reason"); !errors.Is(err, ErrInvalidCredits) {
		t.Fatalf("expected ErrInvalidCredits, got %v", err)
	}
	if _, err := svc.Allocate(ctx, 1, 1, -5, "reason"); !errors.Is(err, ErrInvalidCredits) {
		t.Fatalf("expected ErrInvalidCredits for negative amount, got %v", err)
	}
	if _, err := svc.Allocate(ctx, 1, 1, 5, "   "); !errors.Is(err, ErrEmptyReason) {
		t.Fatalf("expected ErrEmptyReason, got %v", err)
	}
	if _, err := svc.Allocate(ctx, 1, 42, 5, "reason"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestAllocateRevoked(t *testing.T) {
	repo := newMemRepository()
	repo.addInvitation(1, models.CategoryGeneral)
	svc := NewAllocationService(repo)
	ctx := context.Background()

	if _, err := svc.Allocate(ctx, 1, 1, 5, "initial"); err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if err := svc.Revoke(ctx, 1, 1); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if _, err := svc.Allocate(ctx, 1, 1, 5, "again"); !errors.Is(err, ErrAllocationRevoked) {
		t.Fatalf("expected ErrAllocationRevoked, got %v", err)
	}
}

func TestBulkAllocateCategoryMismatchMutatesNothing(t *testing.T) {
	repo := newMemRepository()
	repo.addInvitation(1, models.CategoryNeedSupport)
	repo.addInvitation(2, models.CategoryNeedSupport)
	repo.addInvitation(3, models.CategoryTestimonial)
	svc := NewAllocationService(repo)

	_, err := svc.BulkAllocate(context.Background(), 1, []uint{1, 2, 3}, 5, "aid batch", models.CategoryNeedSupport)
	if !errors.Is(err, ErrCategoryMismatch) {
		t.Fatalf("expected ErrCategoryMismatch, got %v", err)
	}
	if len(repo.allocations) != 0 {
		t.Fatalf("batch rejected but %d ledger rows were written", len(repo.allocations))
	}
}

func TestBulkAllocateMissingInvitationMutatesNothing(t *testing.T) {
	repo := newMemRepository()
	repo.addInvitation(1, models.CategoryNeedSupport)
	svc := NewAllocationService(repo)

	_, err := svc.BulkAllocate(context.Background(), 1, []uint{1, 404}, 5, "aid batch", "")
	if !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
	if len(repo.allocations) != 0 {
		t.Fatal("batch rejected but ledger rows were written")
	}
}

func TestBulkAllocatePartialFailure(t *testing.T) {
	repo := newMemRepository()
	repo.addInvitation(1, models.CategoryNeedSupport)
	repo.addInvitation(2, models.CategoryNeedSupport)
	svc := NewAllocationService(repo)
	ctx := context.Background()

	// Revoked allocation makes invitation 2 fail per-item, not the batch.
	if _, err := svc.Allocate(ctx, 1, 2, 1, "seed"); err != nil {
		t.Fatalf("seed Allocate returned error: %v", err)
	}
	if err := svc.Revoke(ctx, 1, 2); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	res, err := svc.BulkAllocate(ctx, 1, []uint{1, 2}, 5, "aid batch", models.CategoryNeedSupport)
	if err != nil {
		t.Fatalf("BulkAllocate returned error: %v", err)
	}
	if res.Summary.Succeeded != 1 || res.Summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 succeeded / 1 failed", res.Summary)
	}
	if len(res.Errors) != 1 || res.Errors[0].InvitationID != 2 {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
}

func TestRedeemGrantsExactlyOnce(t *testing.T) {
	repo := newMemRepository()
	repo.addInvitation(1, models.CategoryTrialAccess)
	alloc := NewAllocationService(repo)
	consume := NewConsumptionService(repo)
	ctx := context.Background()

	if _, err := alloc.Allocate(ctx, 1, 1, 8, "trial"); err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}

	granted, err := alloc.Redeem(ctx, 1, 7)
	if err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}
	if granted != 8 {
		t.Fatalf("granted = %d, want 8", granted)
	}

	bal, err := consume.Balance(ctx, 7)
	if err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if bal.Balance != 8 {
		t.Fatalf("balance = %d, want 8", bal.Balance)
	}

	// Replay grants nothing further.
	granted, err = alloc.Redeem(ctx, 1, 7)
	if err != nil {
		t.Fatalf("replay Redeem returned error: %v", err)
	}
	if granted != 0 {
		t.Fatalf("replay granted = %d, want 0", granted)
	}
	bal, _ = consume.Balance(ctx, 7)
	if bal.Balance != 8 {
		t.Fatalf("balance after replay = %d, want 8", bal.Balance)
	}

	inv, _ := repo.GetInvitationByID(1)
	if inv.Status != models.InvitationUsed {
		t.Fatalf("invitation status = %s, want used", inv.Status)
	}
	a, _ := repo.GetAllocationByInvitationID(1)
	if a.Status != models.AllocationExhausted || a.CreditsUsed != a.CreditsAllocated {
		t.Fatalf("allocation not exhausted after redeem: %+v", a)
	}
}

func TestReserveInsufficientBalance(t *testing.T) {
	repo := newMemRepository()
	svc := NewConsumptionService(repo)
	ctx := context.Background()

	if err := svc.Grant(ctx, 7, 3, models.TxReasonPurchase, "ref"); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if _, err := svc.Reserve(ctx, 7, 100, 5, time.Hour, 0); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
}

func TestReserveCompleteDebitsLedger(t *testing.T) {
	repo := newMemRepository()
	svc := NewConsumptionService(repo)
	ctx := context.Background()

	if err := svc.Grant(ctx, 7, 10, models.TxReasonPurchase, "ref"); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	hold, err := svc.Reserve(ctx, 7, 100, 4, time.Hour, 0)
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if hold.Status != models.ReservationHeld {
		t.Fatalf("hold status = %s, want held", hold.Status)
	}

	bal, _ := svc.Balance(ctx, 7)
	if bal.Available != 6 || bal.Held != 4 || bal.Balance != 10 {
		t.Fatalf("balance after reserve = %+v", bal)
	}

	if err := svc.Complete(ctx, 7, 100); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	bal, _ = svc.Balance(ctx, 7)
	if bal.Balance != 6 || bal.Held != 0 || bal.Available != 6 {
		t.Fatalf("balance after complete = %+v", bal)
	}

	// Completing the same session again fails: the hold is spent.
	if err := svc.Complete(ctx, 7, 100); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound on double complete, got %v", err)
	}
}

func TestReleaseFreesHoldWithoutCharge(t *testing.T) {
	repo := newMemRepository()
	svc := NewConsumptionService(repo)
	ctx := context.Background()

	if err := svc.Grant(ctx, 7, 10, models.TxReasonPurchase, "ref"); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if _, err := svc.Reserve(ctx, 7, 100, 4, time.Hour, 0); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if err := svc.Release(ctx, 7, 100); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	bal, _ := svc.Balance(ctx, 7)
	if bal.Balance != 10 || bal.Held != 0 {
		t.Fatalf("balance after release = %+v", bal)
	}
}

func TestReserveDuplicateSession(t *testing.T) {
	repo := newMemRepository()
	svc := NewConsumptionService(repo)
	ctx := context.Background()

	if err := svc.Grant(ctx, 7, 10, models.TxReasonPurchase, "ref"); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if _, err := svc.Reserve(ctx, 7, 100, 2, time.Hour, 0); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if _, err := svc.Reserve(ctx, 7, 100, 2, time.Hour, 0); !errors.Is(err, ErrDuplicateReservation) {
		t.Fatalf("expected ErrDuplicateReservation, got %v", err)
	}
}

func TestReserveHoldCap(t *testing.T) {
	repo := newMemRepository()
	svc := NewConsumptionService(repo)
	ctx := context.Background()

	if err := svc.Grant(ctx, 7, 10, models.TxReasonPurchase, "ref"); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if _, err := svc.Reserve(ctx, 7, 100, 1, time.Hour, 2); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if _, err := svc.Reserve(ctx, 7, 101, 1, time.Hour, 2); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if _, err := svc.Reserve(ctx, 7, 102, 1, time.Hour, 2); !errors.Is(err, ErrTooManyReservations) {
		t.Fatalf("expected ErrTooManyReservations, got %v", err)
	}
}

func TestExpiredHoldCannotBeCompleted(t *testing.T) {
	repo := newMemRepository()
	svc := NewConsumptionService(repo)
	ctx := context.Background()

	if err := svc.Grant(ctx, 7, 10, models.TxReasonPurchase, "ref"); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	hold, ok, err := repo.CreateHold(7, 100, 4, time.Now().Add(-time.Minute))
	if err != nil || !ok {
		t.Fatalf("CreateHold failed: ok=%v err=%v", ok, err)
	}
	if hold == nil {
		t.Fatal("expected hold")
	}

	if err := svc.Complete(ctx, 7, 100); !errors.Is(err, ErrReservationExpired) {
		t.Fatalf("expected ErrReservationExpired, got %v", err)
	}
	// The expired hold was released, not committed.
	bal, _ := svc.Balance(ctx, 7)
	if bal.Balance != 10 {
		t.Fatalf("balance = %d, want 10 (no debit)", bal.Balance)
	}
}

func TestReleaseExpiredSweep(t *testing.T) {
	repo := newMemRepository()
	svc := NewConsumptionService(repo)
	ctx := context.Background()

	if err := svc.Grant(ctx, 7, 10, models.TxReasonPurchase, "ref"); err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if _, ok, err := repo.CreateHold(7, 100, 2, time.Now().Add(-time.Minute)); err != nil || !ok {
		t.Fatalf("CreateHold failed: ok=%v err=%v", ok, err)
	}
	if _, err := svc.Reserve(ctx, 7, 101, 2, time.Hour, 0); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	released, err := svc.ReleaseExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("ReleaseExpired returned error: %v", err)
	}
	if released != 1 {
		t.Fatalf("released = %d, want 1", released)
	}
}

// Random interleavings of allocate/redeem/reserve/complete/release must never
// drive available negative nor credits_used past credits_allocated.
func TestLedgerInvariantsUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for run := 0; run < 20; run++ {
		repo := newMemRepository()
		repo.addInvitation(1, models.CategoryTrialAccess)
		alloc := NewAllocationService(repo)
		consume := NewConsumptionService(repo)

		const userID = 7
		nextSession := uint(1)
		var openSessions []uint

		for step := 0; step < 200; step++ {
			switch rng.Intn(5) {
			case 0:
				_, _ = alloc.Allocate(ctx, 1, 1, rng.Intn(5)+1, "fuzz")
			case 1:
				_, _ = alloc.Redeem(ctx, 1, userID)
			case 2:
				sid := nextSession
				nextSession++
				if _, err := consume.Reserve(ctx, userID, sid, rng.Intn(4)+1, time.Hour, 0); err == nil {
					openSessions = append(openSessions, sid)
				}
			case 3:
				if len(openSessions) > 0 {
					i := rng.Intn(len(openSessions))
					if err := consume.Complete(ctx, userID, openSessions[i]); err == nil {
						openSessions = append(openSessions[:i], openSessions[i+1:]...)
					}
				}
			case 4:
				if len(openSessions) > 0 {
					i := rng.Intn(len(openSessions))
					if err := consume.Release(ctx, userID, openSessions[i]); err == nil {
						openSessions = append(openSessions[:i], openSessions[i+1:]...)
					}
				}
			}

			if a, err := repo.GetAllocationByInvitationID(1); err == nil {
				if a.CreditsUsed > a.CreditsAllocated {
					t.Fatalf("run %d step %d: credits_used %d exceeds credits_allocated %d", run, step, a.CreditsUsed, a.CreditsAllocated)
				}
				if a.CreditsUsed < 0 || a.CreditsAllocated < 0 {
					t.Fatalf("run %d step %d: negative ledger values: %+v", run, step, a)
				}
			}
			bal, err := consume.Balance(ctx, userID)
			if err != nil {
				t.Fatalf("Balance returned error: %v", err)
			}
			if bal.Available < 0 {
				t.Fatalf("run %d step %d: available went negative: %+v", run, step, bal)
			}
		}
	}
}
