package models

import "time"

// Reservation statuses. A hold is created as held and moves exactly once to
// committed or released.
const (
	ReservationHeld      = "held"
	ReservationCommitted = "committed"
	ReservationReleased  = "released"
)

// CreditReservation is a provisional hold against a user's balance pending
// session completion. Holds carry an expiry so abandoned sessions cannot pin
// credits forever; expired holds are swept by the maintenance job.
type CreditReservation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_reservations_user_status" json:"user_id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	Amount    int       `gorm:"not null" json:"amount"`
	Status    string    `gorm:"type:varchar(20);not null;default:'held';index:idx_reservations_user_status" json:"status"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CreditReservation) TableName() string {
	return "credit_reservations"
}

// IsExpired reports whether the hold passed its expiry.
func (r *CreditReservation) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
