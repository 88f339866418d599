package models

import (
	"time"

	"gorm.io/gorm"
)

// Guidance session statuses.
const (
	SessionScheduled  = "scheduled"
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionCancelled  = "cancelled"
)

// GuidanceSession is the credit-consuming unit of the platform. Credits are
// reserved when the session is scheduled and committed when it completes.
type GuidanceSession struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Topic       string         `gorm:"type:varchar(255)" json:"topic"`
	Status      string         `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	CreditsCost int            `gorm:"not null;default:1" json:"credits_cost"`
	ScheduledAt *time.Time     `gorm:"type:timestamp;default:null" json:"scheduled_at,omitempty"`
	CompletedAt *time.Time     `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GuidanceSession) TableName() string {
	return "guidance_sessions"
}
