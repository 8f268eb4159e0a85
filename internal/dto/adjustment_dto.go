package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ApplyAdjustmentRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Year   int    `json:"year"    validate:"required,min=2000"`
	Month  int    `json:"month"   validate:"required,min=1,max=12"`
	Week   int    `json:"week"    validate:"required,min=1,max=5"`
	Type   string `json:"type"    validate:"required,oneof=credit debit clear_due"`
	// Amount must be positive for credit/debit; it is ignored for clear_due.
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
	Reason string          `json:"reason" validate:"required,min=3"`
	Notes  *string         `json:"notes"`
}

type AdjustmentFilter struct {
	UserID string `form:"user_id"`
	Year   int    `form:"year"`
	Month  int    `form:"month"`
	Week   int    `form:"week"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AdjustmentResponse struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Week             int             `json:"week"`
	AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
	AdjustmentType   string          `json:"adjustment_type"`
	PreviousBalance  decimal.Decimal `json:"previous_balance"`
	NewBalance       decimal.Decimal `json:"new_balance"`
	Reason           string          `json:"reason"`
	Notes            *string         `json:"notes,omitempty"`
	AddedBy          string          `json:"added_by"`
	AdjustmentDate   string          `json:"adjustment_date"`

	// Balance is the updated weekly balance after applying / reversing.
	Balance *WeeklyBalanceResponse `json:"balance,omitempty"`
}
