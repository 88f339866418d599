package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Organization member roles and statuses.
const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"

	OrgMemberActive  = "active"
	OrgMemberInvited = "invited"
	OrgMemberRemoved = "removed"
)

// Organization groups enterprise members under a shared plan.
type Organization struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Name      string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Plan      string         `gorm:"type:varchar(50);default:'enterprise'" json:"plan"`
	OwnerID   uint           `gorm:"not null;index" json:"owner_id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;index:ux_org_members_org_user,unique,priority:1" json:"organization_id"`
	UserID         uint      `gorm:"not null;index:ux_org_members_org_user,unique,priority:2" json:"user_id"`
	Role           string    `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status         string    `gorm:"type:varchar(20);not null;default:'invited'" json:"status"`
	InvitedBy      uint      `gorm:"index" json:"invited_by"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}

// CanManageMembers reports whether the membership role may add or remove
// other members.
func (m *OrganizationMember) CanManageMembers() bool {
	return m.Status == OrgMemberActive && (m.Role == OrgRoleOwner || m.Role == OrgRoleAdmin)
}
