package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditPackage is a purchasable credit bundle offered through the payment
// processor.
type CreditPackage struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string          `gorm:"type:varchar(150);not null" json:"name"`
	Credits   int             `gorm:"not null" json:"credits"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Currency  string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CreditPackage) TableName() string {
	return "credit_packages"
}
