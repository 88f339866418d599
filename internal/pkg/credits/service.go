package credits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// DefaultHoldTTL bounds how long a reservation pins credits before the sweep
// releases it.
const DefaultHoldTTL = 30 * time.Minute

// AllocationService manages the per-invitation credit ledger. The allocation
// policy is cumulative: repeated allocations to the same invitation add up,
// they are never rejected and never reduce the allocated total.
type AllocationService struct {
	repo Repository
}

// NewAllocationService creates an allocation service from an injected repository.
func NewAllocationService(repo Repository) *AllocationService {
	return &AllocationService{repo: repo}
}

// NewAllocationServiceFromDB creates an allocation service from a GORM DB handle.
func NewAllocationServiceFromDB(db *gorm.DB) *AllocationService {
	return NewAllocationService(NewRepository(db))
}

// Allocate credits an invitation. The first allocation creates the ledger
// row; later ones add to it through a single atomic increment, so concurrent
// allocations cannot lose updates.
func (s *AllocationService) Allocate(ctx context.Context, actorID uint, invitationID uint, credits int, reason string) (*AllocationResult, error) {
	_ = ctx
	if credits <= 0 {
		return nil, ErrInvalidCredits
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}

	if _, err := s.repo.GetInvitationByID(invitationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	created := false
	updated, err := s.repo.IncrementAllocation(invitationID, credits, reason, actorID)
	if err != nil {
		return nil, err
	}
	if !updated {
		existing, err := s.repo.GetAllocationByInvitationID(invitationID)
		switch {
		case err == nil && existing.Status == models.AllocationRevoked:
			return nil, ErrAllocationRevoked
		case err == nil:
			// Row appeared between increment and lookup; retry the increment.
			if _, err := s.repo.IncrementAllocation(invitationID, credits, reason, actorID); err != nil {
				return nil, err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			a := &models.CreditAllocation{
				InvitationID:     invitationID,
				CreditsAllocated: credits,
				CreditsUsed:      0,
				Reason:           reason,
				Status:           models.AllocationActive,
				CreatedBy:        actorID,
				UpdatedBy:        actorID,
			}
			if createErr := s.repo.CreateAllocation(a); createErr != nil {
				// Lost the insert race: fall back to the increment path.
				if _, incErr := s.repo.IncrementAllocation(invitationID, credits, reason, actorID); incErr != nil {
					return nil, createErr
				}
			} else {
				created = true
			}
		default:
			return nil, err
		}
	}

	allocation, err := s.repo.GetAllocationByInvitationID(invitationID)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"invitation_id": invitationID,
		"credits":       credits,
		"actor_id":      actorID,
	}).Info("credits allocated")

	return &AllocationResult{
		Allocation: allocation,
		Available:  allocation.Available(),
		Created:    created,
	}, nil
}

// BulkAllocate allocates the same amount to many invitations. The existence
// and category preconditions are checked for the whole batch before any row
// is touched; after that each invitation is attempted independently and
// partial success is reported, never rolled back.
func (s *AllocationService) BulkAllocate(ctx context.Context, actorID uint, invitationIDs []uint, credits int, reason string, category string) (*BulkAllocationResult, error) {
	if credits <= 0 {
		return nil, ErrInvalidCredits
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if len(invitationIDs) == 0 {
		return nil, errors.New("no invitation ids given")
	}

	invs, err := s.repo.GetInvitationsByIDs(invitationIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]*models.Invitation, len(invs))
	for i := range invs {
		found[invs[i].ID] = &invs[i]
	}
	category = strings.TrimSpace(category)
	for _, id := range invitationIDs {
		inv, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrInvitationNotFound, id)
		}
		if category != "" && inv.Category != category {
			return nil, fmt.Errorf("%w: invitation %d is %s", ErrCategoryMismatch, id, inv.Category)
		}
	}

	result := &BulkAllocationResult{
		Summary: BulkAllocationSummary{
			Requested:            len(invitationIDs),
			CreditsPerInvitation: credits,
		},
	}
	for _, id := range invitationIDs {
		item, err := s.Allocate(ctx, actorID, id, credits, reason)
		if err != nil {
			result.Errors = append(result.Errors, BulkAllocationItemError{InvitationID: id, Error: err.Error()})
			result.Summary.Failed++
			continue
		}
		result.Results = append(result.Results, *item)
		result.Summary.Succeeded++
	}
	return result, nil
}

// Revoke marks an invitation's allocation revoked; the remaining credits can
// no longer be redeemed. The allocated total is kept for audit.
func (s *AllocationService) Revoke(ctx context.Context, actorID uint, invitationID uint) error {
	_ = ctx
	ok, err := s.repo.RevokeAllocation(invitationID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvitationNotFound
	}
	return nil
}

// Redeem converts an invitation's remaining allocated credits into a ledger
// grant for the given user and marks the invitation used. The conversion is
// guarded so a replayed redemption grants nothing twice.
func (s *AllocationService) Redeem(ctx context.Context, invitationID uint, userID uint) (int, error) {
	_ = ctx
	inv, err := s.repo.GetInvitationByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrInvitationNotFound
		}
		return 0, err
	}

	granted := 0
	allocation, err := s.repo.GetAllocationByInvitationID(invitationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if err == nil && allocation.Status == models.AllocationActive && allocation.Available() > 0 {
		amount := allocation.Available()
		ok, err := s.repo.ConsumeAllocation(invitationID, amount)
		if err != nil {
			return 0, err
		}
		if ok {
			granted = amount
			if err := s.repo.AppendTransaction(&models.CreditTransaction{
				UserID:    userID,
				Amount:    amount,
				Reason:    models.TxReasonInvitationGrant,
				Reference: inv.UUID,
			}); err != nil {
				return 0, err
			}
		}
	}

	if inv.CanTransitionTo(models.InvitationUsed) {
		inv.Status = models.InvitationUsed
		if err := s.repo.SaveInvitation(inv); err != nil {
			return granted, err
		}
	}

	if granted > 0 {
		logrus.WithFields(logrus.Fields{
			"invitation_id": invitationID,
			"user_id":       userID,
			"granted":       granted,
		}).Info("invitation credits redeemed")
	}
	return granted, nil
}

// ConsumptionService manages the user-level credit balance: grants,
// reservations against sessions, and the append-only transaction ledger.
type ConsumptionService struct {
	repo Repository
}

// NewConsumptionService creates a consumption service from an injected repository.
func NewConsumptionService(repo Repository) *ConsumptionService {
	return &ConsumptionService{repo: repo}
}

// NewConsumptionServiceFromDB creates a consumption service from a GORM DB handle.
func NewConsumptionServiceFromDB(db *gorm.DB) *ConsumptionService {
	return NewConsumptionService(NewRepository(db))
}

// Balance returns the ledger sum, the open holds, and the spendable remainder.
func (s *ConsumptionService) Balance(ctx context.Context, userID uint) (*BalanceInfo, error) {
	_ = ctx
	balance, err := s.repo.SumTransactions(userID)
	if err != nil {
		return nil, err
	}
	held, err := s.repo.SumHeld(userID)
	if err != nil {
		return nil, err
	}
	return &BalanceInfo{Balance: balance, Held: held, Available: balance - held}, nil
}

// Transactions lists the user's ledger entries, newest first.
func (s *ConsumptionService) Transactions(ctx context.Context, userID uint, offset, limit int) ([]models.CreditTransaction, int64, error) {
	_ = ctx
	return s.repo.ListTransactions(userID, offset, limit)
}

// Grant appends a positive ledger entry for the user.
func (s *ConsumptionService) Grant(ctx context.Context, userID uint, amount int, reason, reference string) error {
	_ = ctx
	if amount <= 0 {
		return ErrInvalidCredits
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}
	return s.repo.AppendTransaction(&models.CreditTransaction{
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		Reference: reference,
	})
}

// Adjust appends a manual ledger correction. Negative amounts are allowed
// but may not drive the available balance below zero.
func (s *ConsumptionService) Adjust(ctx context.Context, userID uint, amount int, reference string) error {
	if amount == 0 {
		return ErrInvalidCredits
	}
	if amount < 0 {
		info, err := s.Balance(ctx, userID)
		if err != nil {
			return err
		}
		if info.Available+amount < 0 {
			return ErrInsufficientCredits
		}
	}
	return s.repo.AppendTransaction(&models.CreditTransaction{
		UserID:    userID,
		Amount:    amount,
		Reason:    models.TxReasonAdjustment,
		Reference: reference,
	})
}

// Reserve places a hold of amount credits against a session. The hold is
// persisted with an expiry; the underlying insert is guarded so concurrent
// reservations from the same user cannot overdraw the balance. maxHolds of
// zero means no per-plan cap.
func (s *ConsumptionService) Reserve(ctx context.Context, userID, sessionID uint, amount int, ttl time.Duration, maxHolds int) (*models.CreditReservation, error) {
	_ = ctx
	if amount <= 0 {
		return nil, ErrInvalidCredits
	}
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}

	if _, err := s.repo.GetHold(userID, sessionID); err == nil {
		return nil, ErrDuplicateReservation
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if maxHolds > 0 {
		open, err := s.repo.CountHeld(userID)
		if err != nil {
			return nil, err
		}
		if open >= int64(maxHolds) {
			return nil, ErrTooManyReservations
		}
	}

	hold, ok, err := s.repo.CreateHold(userID, sessionID, amount, time.Now().Add(ttl))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}
	return hold, nil
}

// Complete commits the session's hold: the reservation flips to committed and
// the debit lands on the ledger in one DB transaction. Completing twice
// fails, as does completing an expired hold.
func (s *ConsumptionService) Complete(ctx context.Context, userID, sessionID uint) error {
	_ = ctx
	hold, err := s.repo.GetHold(userID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	if hold.IsExpired(time.Now()) {
		_, _ = s.repo.ReleaseHold(hold.ID)
		return ErrReservationExpired
	}

	sessionRef := hold.SessionID
	ok, err := s.repo.CommitHold(hold.ID, &models.CreditTransaction{
		UserID:    userID,
		SessionID: &sessionRef,
		Amount:    -hold.Amount,
		Reason:    models.TxReasonSessionDebit,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrReservationNotFound
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sessionID,
		"amount":     hold.Amount,
	}).Info("session credits committed")
	return nil
}

// Release frees the session's hold without charging anything.
func (s *ConsumptionService) Release(ctx context.Context, userID, sessionID uint) error {
	_ = ctx
	hold, err := s.repo.GetHold(userID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	ok, err := s.repo.ReleaseHold(hold.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrReservationNotFound
	}
	return nil
}

// ReleaseExpired sweeps expired holds; called by the maintenance job.
func (s *ConsumptionService) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	_ = ctx
	return s.repo.ReleaseExpiredHolds(now)
}
