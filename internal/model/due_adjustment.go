package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DueAdjustment is an append-only audit record of an administrative nudge
// to a stored weekly balance. The record itself is never mutated —
// AdjustmentAmount holds the signed delta actually applied (for clear_due
// that is 0 − previousBalance), so reversing an adjustment is replaying
// the inverse delta and deleting the record.
// AdjustmentType: "credit" | "debit" | "clear_due"
type DueAdjustment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_adjustments_user_week"`
	Year             int             `gorm:"not null;index:idx_adjustments_user_week"`
	Month            int             `gorm:"not null;index:idx_adjustments_user_week"`
	Week             int             `gorm:"not null;index:idx_adjustments_user_week"`
	AdjustmentAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AdjustmentType   string          `gorm:"type:varchar(20);not null"`
	PreviousBalance  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NewBalance       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason           string          `gorm:"not null"`
	Notes            *string
	AddedBy          uuid.UUID `gorm:"type:uuid;not null"`
	AdjustmentDate   time.Time `gorm:"not null"`
	CreatedAt        time.Time

	User *User `gorm:"foreignKey:UserID"`
}
