package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdvancePayment is an admin-authored ledger entry: positive = credit
// handed in by the member, negative = deduction. Entries are append-only
// and NEVER edited — deleting one reverses its effect by triggering
// recalculation of every week from its date forward, not by rewriting
// history.
// PaymentType: "advance" | "due_clearance" | "deduction"
type AdvancePayment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Date             time.Time       `gorm:"type:date;not null;index"`
	Notes            *string
	AddedBy          uuid.UUID       `gorm:"type:uuid;not null"`
	PaymentType      string          `gorm:"type:varchar(20);not null;default:'advance'"`
	ClearedDueAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt        time.Time

	User *User `gorm:"foreignKey:UserID"`
}
