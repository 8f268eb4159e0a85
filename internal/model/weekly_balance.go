package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeeklyBalance is the settled outcome of one member's billing week.
//
// Grain: (user_id, year, month, week) — enforced by the composite unique
// index. This is derived data, rebuildable at any time from meals,
// purchases and advance payments; the only fields that are NOT derivable
// from those facts are the adjustment overlay (TotalDueAdjustments /
// AdjustedBalance), whose source of truth is the append-only
// DueAdjustment ledger.
//
// Invariant: WeeklyBalance = AdvanceFromPreviousWeek + TotalPurchases +
// TotalAdvancePayments − TotalExpense, and AdvanceToNextWeek =
// max(WeeklyBalance, 0) — a due week never carries a negative balance
// into the following week.
type WeeklyBalance struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balances_user_week"`
	Year      int       `gorm:"not null;uniqueIndex:idx_balances_user_week"`
	Month     int       `gorm:"not null;uniqueIndex:idx_balances_user_week"`
	Week      int       `gorm:"not null;uniqueIndex:idx_balances_user_week"`
	WeekStart time.Time `gorm:"type:date;not null"`
	WeekEnd   time.Time `gorm:"type:date;not null"`

	TotalMeals           int             `gorm:"not null;default:0"`
	TotalPurchases       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAdvancePayments decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalExpense         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	WeeklyBalance           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	AdvanceFromPreviousWeek decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	AdvanceToNextWeek       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	IsDue                   bool            `gorm:"not null;default:false"`
	FinalAmount             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status                  string          `gorm:"type:varchar(20);not null;default:'Balanced'"` // Due | Credit | Balanced

	// Adjustment overlay — folded net of the DueAdjustment ledger.
	TotalDueAdjustments decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	AdjustedBalance     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	CalculatedAt time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	User *User `gorm:"foreignKey:UserID"`
}

// Balance statuses.
const (
	StatusDue      = "Due"
	StatusCredit   = "Credit"
	StatusBalanced = "Balanced"
)
