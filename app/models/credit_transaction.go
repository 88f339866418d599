package models

import "time"

// Transaction reasons used by the services. Free-text reasons are allowed;
// these constants cover the flows the platform itself creates.
const (
	TxReasonInvitationGrant = "invitation_grant"
	TxReasonPlanGrant       = "plan_grant"
	TxReasonPurchase        = "purchase"
	TxReasonSessionDebit    = "session_debit"
	TxReasonAdjustment      = "adjustment"
)

// CreditTransaction is the append-only user ledger. Positive amounts credit
// the balance, negative amounts debit it. Rows are never mutated or deleted;
// the running sum per user is the user's balance.
type CreditTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	SessionID *uint     `gorm:"index" json:"session_id,omitempty"`
	Amount    int       `gorm:"not null" json:"amount"`
	Reason    string    `gorm:"type:varchar(100);not null" json:"reason"`
	Reference string    `gorm:"type:varchar(191);index" json:"reference,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
