package repository

import (
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new guidance session repository instance
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *models.GuidanceSession) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) GetByID(id uint) (*models.GuidanceSession, error) {
	var session models.GuidanceSession
	err := r.db.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) GetByUUID(uuid string) (*models.GuidanceSession, error) {
	var session models.GuidanceSession
	err := r.db.Where("uuid = ?", uuid).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) ListByUser(userID uint, offset, limit int) ([]models.GuidanceSession, int64, error) {
	var total int64
	if err := r.db.Model(&models.GuidanceSession{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	var sessions []models.GuidanceSession
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepository) Update(session *models.GuidanceSession) error {
	return r.db.Save(session).Error
}
