package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	ListActivePaid() ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// InvitationListFilter narrows admin invitation listings.
type InvitationListFilter struct {
	Category string
	Status   string
	Search   string
	Offset   int
	Limit    int
}

// InvitationWithCredits joins an invitation with its credit ledger fields.
// Invitations without an allocation carry a "none" credit status and zeroes.
type InvitationWithCredits struct {
	models.Invitation
	CreditsAllocated int    `json:"credits_allocated"`
	CreditsUsed      int    `json:"credits_used"`
	CreditsAvailable int    `json:"credits_available"`
	CreditStatus     string `json:"credit_status"`
}

// InvitationRepository defines the interface for invitation operations
type InvitationRepository interface {
	Create(inv *models.Invitation) error
	GetByID(id uint) (*models.Invitation, error)
	GetByUUID(uuid string) (*models.Invitation, error)
	GetByCode(code string) (*models.Invitation, error)
	Update(inv *models.Invitation) error
	List(filter InvitationListFilter) ([]InvitationWithCredits, int64, error)
	GetByIDs(ids []uint) ([]models.Invitation, error)
	CountByStatus(status string) (int64, error)
	HasOpenByEmail(email string) (bool, error)
	ListByBulkUpload(bulkUploadID uint) ([]models.Invitation, error)
	ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error)
	MarkMagicLinkSent(id uint, at time.Time) error
}

// BulkUploadRepository defines the interface for bulk upload bookkeeping
type BulkUploadRepository interface {
	GetByID(id uint) (*models.BulkUpload, error)
	GetByUUID(uuid string) (*models.BulkUpload, error)
	List(offset, limit int) ([]models.BulkUpload, int64, error)
	ListErrors(bulkUploadID uint) ([]models.BulkUploadError, error)
	FinalizeStuck(ctx context.Context, olderThan time.Time) (int64, error)
}

// OrganizationRepository defines the interface for organization operations
type OrganizationRepository interface {
	Create(org *models.Organization) error
	GetByID(id uint) (*models.Organization, error)
	GetByUUID(uuid string) (*models.Organization, error)
	Update(org *models.Organization) error
	Delete(id uint) error
	ListByUser(userID uint) ([]models.Organization, error)
	AddMember(member *models.OrganizationMember) error
	GetMember(orgID, userID uint) (*models.OrganizationMember, error)
	UpdateMember(member *models.OrganizationMember) error
	ListMembers(orgID uint) ([]models.OrganizationMember, error)
	CountActiveMembers(orgID uint) (int64, error)
}

// BlogRepository defines the interface for blog post operations
type BlogRepository interface {
	Create(post *models.BlogPost) error
	GetByID(id uint64) (*models.BlogPost, error)
	GetBySlug(slug string) (*models.BlogPost, error)
	GetPublished(offset, limit int) ([]models.BlogPost, error)
	GetAll(offset, limit int) ([]models.BlogPost, error)
	Update(post *models.BlogPost) error
	Delete(id uint64) error
	Count() (int64, error)
	CountPublished() (int64, error)
	SlugExists(slug string) (bool, error)
	SlugExistsExceptID(slug string, id uint64) (bool, error)
}

// SessionRepository defines the interface for guidance session operations
type SessionRepository interface {
	Create(session *models.GuidanceSession) error
	GetByID(id uint) (*models.GuidanceSession, error)
	GetByUUID(uuid string) (*models.GuidanceSession, error)
	ListByUser(userID uint, offset, limit int) ([]models.GuidanceSession, int64, error)
	Update(session *models.GuidanceSession) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Invitation   InvitationRepository
	BulkUpload   BulkUploadRepository
	Organization OrganizationRepository
	Blog         BlogRepository
	Session      SessionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Invitation:   NewInvitationRepository(db),
		BulkUpload:   NewBulkUploadRepository(db),
		Organization: NewOrganizationRepository(db),
		Blog:         NewBlogRepository(db),
		Session:      NewSessionRepository(db),
	}
}
