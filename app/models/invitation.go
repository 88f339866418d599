package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Invitation categories. The category is fixed at creation and never changes.
const (
	CategoryTrialAccess  = "trial_access"
	CategoryNeedSupport  = "need_support"
	CategoryTestimonial  = "testimonial"
	CategoryGeneral      = "general"
	CategoryBulkUploaded = "bulk_uploaded"
)

// Invitation statuses. Transitions are monotonic; a used, expired, rejected or
// discarded invitation never goes back to pending.
const (
	InvitationPending   = "pending"
	InvitationApproved  = "approved"
	InvitationUsed      = "used"
	InvitationExpired   = "expired"
	InvitationRejected  = "rejected"
	InvitationDiscarded = "discarded"
)

// Invitation represents a person's request to enter one of the program
// categories. Rows are never hard-deleted; discarding is a status change.
type Invitation struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UUID             string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Code             string         `gorm:"type:varchar(32);uniqueIndex" json:"code"`
	Category         string         `gorm:"type:varchar(30);not null;index" json:"category" validate:"oneof=trial_access need_support testimonial general bulk_uploaded"`
	Status           string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Name             string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Email            string         `gorm:"type:varchar(200);not null;index" json:"email" validate:"required,email,max=200"`
	Phone            string         `gorm:"type:varchar(30);default:''" json:"phone" validate:"max=30"`
	Language         string         `gorm:"type:varchar(10);default:'en'" json:"language" validate:"max=10"`
	Note             string         `gorm:"type:text" json:"note,omitempty"`
	BulkUploadID     *uint          `gorm:"index" json:"bulk_upload_id,omitempty"`
	BulkUploadRow    int            `gorm:"default:0" json:"bulk_upload_row,omitempty"`
	MagicLinkSentAt  *time.Time     `gorm:"type:timestamp;default:null" json:"magic_link_sent_at,omitempty"`
	ReviewedBy       *uint          `gorm:"index" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time     `gorm:"type:timestamp;default:null" json:"reviewed_at,omitempty"`
	ReviewNote       string         `gorm:"type:text" json:"review_note,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invitation) TableName() string {
	return "invitations"
}

func (i *Invitation) Validate() error {
	v := validator.New()

	return v.Struct(i)
}

// statusRank orders invitation statuses for the monotonic-transition check.
// Terminal statuses share the highest rank so they cannot replace each other.
var statusRank = map[string]int{
	InvitationPending:   0,
	InvitationApproved:  1,
	InvitationUsed:      2,
	InvitationExpired:   2,
	InvitationRejected:  2,
	InvitationDiscarded: 2,
}

// IsTerminal reports whether the invitation reached a final status.
func (i *Invitation) IsTerminal() bool {
	return statusRank[i.Status] >= 2
}

// CanTransitionTo reports whether moving to the target status keeps the
// status lifecycle monotonic. Same-status updates are not transitions.
func (i *Invitation) CanTransitionTo(target string) bool {
	currentRank, ok := statusRank[i.Status]
	if !ok {
		return false
	}
	targetRank, ok := statusRank[target]
	if !ok {
		return false
	}
	if i.Status == target {
		return false
	}
	if i.IsTerminal() {
		return false
	}
	return targetRank > currentRank || (currentRank == 0 && targetRank >= 1)
}
