package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// bulkUploadRepository implements the BulkUploadRepository interface
type bulkUploadRepository struct {
	db *gorm.DB
}

// NewBulkUploadRepository creates a new bulk upload repository instance
func NewBulkUploadRepository(db *gorm.DB) BulkUploadRepository {
	return &bulkUploadRepository{db: db}
}

func (r *bulkUploadRepository) GetByID(id uint) (*models.BulkUpload, error) {
	var upload models.BulkUpload
	err := r.db.First(&upload, id).Error
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *bulkUploadRepository) GetByUUID(uuid string) (*models.BulkUpload, error) {
	var upload models.BulkUpload
	err := r.db.Where("uuid = ?", uuid).First(&upload).Error
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *bulkUploadRepository) List(offset, limit int) ([]models.BulkUpload, int64, error) {
	var total int64
	if err := r.db.Model(&models.BulkUpload{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	var uploads []models.BulkUpload
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&uploads).Error
	return uploads, total, err
}

func (r *bulkUploadRepository) ListErrors(bulkUploadID uint) ([]models.BulkUploadError, error) {
	var rowErrors []models.BulkUploadError
	err := r.db.Where("bulk_upload_id = ?", bulkUploadID).
		Order("row_number ASC").
		Find(&rowErrors).Error
	return rowErrors, err
}

// FinalizeStuck marks uploads stuck in processing since before the cutoff as
// completed so they stop showing as in-flight.
func (r *bulkUploadRepository) FinalizeStuck(ctx context.Context, olderThan time.Time) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.BulkUpload{}).
		Where("status = ? AND created_at < ?", models.BulkUploadProcessing, olderThan).
		Updates(map[string]interface{}{
			"status":       models.BulkUploadCompleted,
			"completed_at": &now,
		})
	return res.RowsAffected, res.Error
}
