package models

import (
	"time"

	"gorm.io/gorm"
)

// Credit allocation statuses.
const (
	AllocationActive    = "active"
	AllocationExhausted = "exhausted"
	AllocationRevoked   = "revoked"
)

// CreditAllocation is the per-invitation ledger row. There is exactly one row
// per invitation; repeated allocations increase credits_allocated in place.
// credits_used never exceeds credits_allocated and credits_allocated never
// decreases.
type CreditAllocation struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	InvitationID     uint           `gorm:"not null;uniqueIndex" json:"invitation_id"`
	CreditsAllocated int            `gorm:"not null;default:0" json:"credits_allocated"`
	CreditsUsed      int            `gorm:"not null;default:0" json:"credits_used"`
	Reason           string         `gorm:"type:text" json:"reason"`
	Status           string         `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedBy        uint           `gorm:"index" json:"created_by"`
	UpdatedBy        uint           `gorm:"index" json:"updated_by"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CreditAllocation) TableName() string {
	return "credit_allocations"
}

// Available returns the remaining credits on this allocation.
func (a *CreditAllocation) Available() int {
	return a.CreditsAllocated - a.CreditsUsed
}
