package credits

import (
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// Repository provides DB operations used by the allocation and consumption
// services. Every balance-affecting write is a single conditional statement;
// the services never read-modify-write ledger values.
type Repository interface {
	GetInvitationByID(id uint) (*models.Invitation, error)
	GetInvitationsByIDs(ids []uint) ([]models.Invitation, error)
	SaveInvitation(inv *models.Invitation) error

	GetAllocationByInvitationID(invitationID uint) (*models.CreditAllocation, error)
	CreateAllocation(a *models.CreditAllocation) error
	// IncrementAllocation atomically adds credits to a non-revoked allocation
	// and re-activates it. Returns false when no matching row exists.
	IncrementAllocation(invitationID uint, credits int, reason string, actorID uint) (bool, error)
	// ConsumeAllocation atomically moves credits from available to used,
	// flipping the status to exhausted when nothing remains. Returns false
	// when the allocation lacks headroom.
	ConsumeAllocation(invitationID uint, credits int) (bool, error)
	RevokeAllocation(invitationID uint, actorID uint) (bool, error)

	AppendTransaction(tx *models.CreditTransaction) error
	SumTransactions(userID uint) (int, error)
	ListTransactions(userID uint, offset, limit int) ([]models.CreditTransaction, int64, error)

	// CreateHold inserts a held reservation only if the user's available
	// balance (ledger sum minus open holds) covers the amount. Returns false
	// when the guard fails.
	CreateHold(userID, sessionID uint, amount int, expiresAt time.Time) (*models.CreditReservation, bool, error)
	GetHold(userID, sessionID uint) (*models.CreditReservation, error)
	CountHeld(userID uint) (int64, error)
	SumHeld(userID uint) (int, error)
	// CommitHold flips a held reservation to committed and appends the debit
	// transaction in one DB transaction. Returns false when the hold was
	// already committed or released.
	CommitHold(id uint, debit *models.CreditTransaction) (bool, error)
	ReleaseHold(id uint) (bool, error)
	ReleaseExpiredHolds(now time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a credits repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetInvitationByID(id uint) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *gormRepository) GetInvitationsByIDs(ids []uint) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := r.db.Where("id IN ?", ids).Find(&invs).Error
	return invs, err
}

func (r *gormRepository) SaveInvitation(inv *models.Invitation) error {
	return r.db.Save(inv).Error
}

func (r *gormRepository) GetAllocationByInvitationID(invitationID uint) (*models.CreditAllocation, error) {
	var a models.CreditAllocation
	if err := r.db.Where("invitation_id = ?", invitationID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *gormRepository) CreateAllocation(a *models.CreditAllocation) error {
	return r.db.Create(a).Error
}

func (r *gormRepository) IncrementAllocation(invitationID uint, credits int, reason string, actorID uint) (bool, error) {
	res := r.db.Model(&models.CreditAllocation{}).
		Where("invitation_id = ? AND status <> ?", invitationID, models.AllocationRevoked).
		Updates(map[string]interface{}{
			"credits_allocated": gorm.Expr("credits_allocated + ?", credits),
			"status":            models.AllocationActive,
			"reason":            reason,
			"updated_by":        actorID,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *gormRepository) ConsumeAllocation(invitationID uint, credits int) (bool, error) {
	// status is assigned before credits_used so the IF sees the old value.
	res := r.db.Exec(
		`UPDATE credit_allocations
		 SET status = IF(credits_allocated - credits_used - ? <= 0, ?, ?),
		     credits_used = credits_used + ?,
		     updated_at = NOW()
		 WHERE invitation_id = ? AND status = ? AND credits_allocated - credits_used >= ?`,
		credits, models.AllocationExhausted, models.AllocationActive,
		credits, invitationID, models.AllocationActive, credits,
	)
	return res.RowsAffected > 0, res.Error
}

func (r *gormRepository) RevokeAllocation(invitationID uint, actorID uint) (bool, error) {
	res := r.db.Model(&models.CreditAllocation{}).
		Where("invitation_id = ? AND status <> ?", invitationID, models.AllocationRevoked).
		Updates(map[string]interface{}{
			"status":     models.AllocationRevoked,
			"updated_by": actorID,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *gormRepository) AppendTransaction(tx *models.CreditTransaction) error {
	return r.db.Create(tx).Error
}

func (r *gormRepository) SumTransactions(userID uint) (int, error) {
	var sum int64
	err := r.db.Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return int(sum), err
}

func (r *gormRepository) ListTransactions(userID uint, offset, limit int) ([]models.CreditTransaction, int64, error) {
	var total int64
	if err := r.db.Model(&models.CreditTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txs []models.CreditTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error
	return txs, total, err
}

func (r *gormRepository) CreateHold(userID, sessionID uint, amount int, expiresAt time.Time) (*models.CreditReservation, bool, error) {
	// Single guarded INSERT so two concurrent reservations cannot both pass
	// a balance check and overdraw.
	res := r.db.Exec(
		`INSERT INTO credit_reservations (user_id, session_id, amount, status, expires_at, created_at, updated_at)
		 SELECT ?, ?, ?, ?, ?, NOW(), NOW() FROM DUAL
		 WHERE (SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE user_id = ?)
		     - (SELECT COALESCE(SUM(amount), 0) FROM credit_reservations
		        WHERE user_id = ? AND status = ? AND expires_at > NOW()) >= ?`,
		userID, sessionID, amount, models.ReservationHeld, expiresAt,
		userID,
		userID, models.ReservationHeld, amount,
	)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	hold, err := r.GetHold(userID, sessionID)
	if err != nil {
		return nil, false, err
	}
	return hold, true, nil
}

func (r *gormRepository) GetHold(userID, sessionID uint) (*models.CreditReservation, error) {
	var hold models.CreditReservation
	err := r.db.Where("user_id = ? AND session_id = ? AND status = ?", userID, sessionID, models.ReservationHeld).
		Order("created_at DESC").
		First(&hold).Error
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (r *gormRepository) CountHeld(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CreditReservation{}).
		Where("user_id = ? AND status = ? AND expires_at > NOW()", userID, models.ReservationHeld).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) SumHeld(userID uint) (int, error) {
	var sum int64
	err := r.db.Model(&models.CreditReservation{}).
		Where("user_id = ? AND status = ? AND expires_at > NOW()", userID, models.ReservationHeld).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return int(sum), err
}

func (r *gormRepository) CommitHold(id uint, debit *models.CreditTransaction) (bool, error) {
	committed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CreditReservation{}).
			Where("id = ? AND status = ?", id, models.ReservationHeld).
			Update("status", models.ReservationCommitted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(debit).Error; err != nil {
			return err
		}
		committed = true
		return nil
	})
	return committed, err
}

func (r *gormRepository) ReleaseHold(id uint) (bool, error) {
	res := r.db.Model(&models.CreditReservation{}).
		Where("id = ? AND status = ?", id, models.ReservationHeld).
		Update("status", models.ReservationReleased)
	return res.RowsAffected > 0, res.Error
}

func (r *gormRepository) ReleaseExpiredHolds(now time.Time) (int64, error) {
	res := r.db.Model(&models.CreditReservation{}).
		Where("status = ? AND expires_at <= ?", models.ReservationHeld, now).
		Update("status", models.ReservationReleased)
	return res.RowsAffected, res.Error
}
