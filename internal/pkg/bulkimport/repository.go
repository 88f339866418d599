package bulkimport

import (
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// Repository is the persistence surface the importer needs.
type Repository interface {
	CreateBulkUpload(upload *models.BulkUpload) error
	FinalizeBulkUpload(id uint, processed, successful, failed int, archiveKey string) error
	CreateBulkUploadError(rowErr *models.BulkUploadError) error
	CreateInvitation(inv *models.Invitation) error
	HasOpenInvitation(email string) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateBulkUpload(upload *models.BulkUpload) error {
	return r.db.Create(upload).Error
}

func (r *gormRepository) FinalizeBulkUpload(id uint, processed, successful, failed int, archiveKey string) error {
	now := time.Now()
	return r.db.Model(&models.BulkUpload{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_records":  processed,
			"successful_records": successful,
			"failed_records":     failed,
			"archive_key":        archiveKey,
			"status":             models.BulkUploadCompleted,
			"completed_at":       &now,
		}).Error
}

func (r *gormRepository) CreateBulkUploadError(rowErr *models.BulkUploadError) error {
	return r.db.Create(rowErr).Error
}

func (r *gormRepository) CreateInvitation(inv *models.Invitation) error {
	return r.db.Create(inv).Error
}

func (r *gormRepository) HasOpenInvitation(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Invitation{}).
		Where("email = ? AND status IN ?", email, []string{models.InvitationPending, models.InvitationApproved}).
		Count(&count).Error
	return count > 0, err
}
