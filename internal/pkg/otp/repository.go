package otp

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// Repository is the persistence surface the OTP service needs.
type Repository interface {
	CreateCode(ctx context.Context, code *models.OTPCode) error
	// LatestOpenCode returns the most recently issued unconsumed code for the
	// email and purpose, or gorm.ErrRecordNotFound.
	LatestOpenCode(ctx context.Context, email, purpose string) (*models.OTPCode, error)
	IncrementAttempts(ctx context.Context, id uint) error
	MarkConsumed(ctx context.Context, id uint, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateCode(ctx context.Context, code *models.OTPCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *gormRepository) LatestOpenCode(ctx context.Context, email, purpose string) (*models.OTPCode, error) {
	var code models.OTPCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND consumed_at IS NULL", email, purpose).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *gormRepository) IncrementAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *gormRepository) MarkConsumed(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", &at).Error
}

func (r *gormRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.OTPCode{})
	return res.RowsAffected, res.Error
}
