package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// invitationRepository implements the InvitationRepository interface
type invitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new invitation repository instance
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(inv *models.Invitation) error {
	return r.db.Create(inv).Error
}

func (r *invitationRepository) GetByID(id uint) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.First(&inv, id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) GetByUUID(uuid string) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.Where("uuid = ?", uuid).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) GetByCode(code string) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.Where("code = ?", code).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) Update(inv *models.Invitation) error {
	return r.db.Save(inv).Error
}

// List returns invitations joined with their credit ledger, filtered and
// paginated for the admin views.
func (r *invitationRepository) List(filter InvitationListFilter) ([]InvitationWithCredits, int64, error) {
	query := r.db.Model(&models.Invitation{}).
		Select(`invitations.*,
			COALESCE(credit_allocations.credits_allocated, 0) AS credits_allocated,
			COALESCE(credit_allocations.credits_used, 0) AS credits_used,
			COALESCE(credit_allocations.status, '') AS credit_status`).
		Joins("LEFT JOIN credit_allocations ON credit_allocations.invitation_id = invitations.id")

	if filter.Category != "" {
		query = query.Where("invitations.category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("invitations.status = ?", filter.Status)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(invitations.name) LIKE ? OR LOWER(invitations.email) LIKE ? OR LOWER(invitations.phone) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	var rows []InvitationWithCredits
	err := query.Order("invitations.created_at DESC").
		Offset(filter.Offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	for i := range rows {
		deriveCreditFields(&rows[i])
	}
	return rows, total, nil
}

// deriveCreditFields fills the computed ledger columns on a listed
// invitation. Rows without an allocation report a "none" credit status.
func deriveCreditFields(row *InvitationWithCredits) {
	row.CreditsAvailable = row.CreditsAllocated - row.CreditsUsed
	if row.CreditsAvailable < 0 {
		row.CreditsAvailable = 0
	}
	if row.CreditStatus == "" {
		row.CreditStatus = "none"
	}
}

func (r *invitationRepository) GetByIDs(ids []uint) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := r.db.Where("id IN ?", ids).Find(&invs).Error
	return invs, err
}

func (r *invitationRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Invitation{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *invitationRepository) HasOpenByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Invitation{}).
		Where("email = ? AND status IN ?", strings.ToLower(strings.TrimSpace(email)),
			[]string{models.InvitationPending, models.InvitationApproved}).
		Count(&count).Error
	return count > 0, err
}

func (r *invitationRepository) ListByBulkUpload(bulkUploadID uint) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := r.db.Where("bulk_upload_id = ?", bulkUploadID).
		Order("bulk_upload_row ASC").
		Find(&invs).Error
	return invs, err
}

// ExpireStalePending moves pending invitations older than the cutoff to
// expired in one statement. Terminal rows are never touched.
func (r *invitationRepository) ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("status = ? AND created_at < ?", models.InvitationPending, olderThan).
		Update("status", models.InvitationExpired)
	return res.RowsAffected, res.Error
}

func (r *invitationRepository) MarkMagicLinkSent(id uint, at time.Time) error {
	return r.db.Model(&models.Invitation{}).
		Where("id = ?", id).
		Update("magic_link_sent_at", &at).Error
}
