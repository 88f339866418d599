package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// BlogPost represents an article on the public blog surface
type BlogPost struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"type:varchar(255)" json:"title" validate:"required,min=3,max=255"`
	Content   string         `gorm:"type:text" json:"content" validate:"required"`
	Slug      string         `gorm:"uniqueIndex;type:varchar(255)" json:"slug" validate:"required,min=3,max=255"`
	Excerpt   string         `gorm:"type:varchar(500);default:''" json:"excerpt" validate:"max=500"`
	Published bool           `gorm:"type:tinyint(1);default:0" json:"published"`
	ViewCount int64          `gorm:"not null;default:0" json:"view_count"`
	UserID    uint           `gorm:"index" json:"user_id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the BlogPost model
func (BlogPost) TableName() string {
	return "blog_posts"
}

func (p *BlogPost) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
