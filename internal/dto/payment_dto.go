package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreatePaymentRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	// Signed: positive = credit handed in, negative = deduction.
	Amount           decimal.Decimal `json:"amount"             validate:"required"`
	Date             string          `json:"date"               validate:"required,datetime=2006-01-02"`
	Notes            *string         `json:"notes"`
	PaymentType      string          `json:"payment_type"       validate:"required,oneof=advance due_clearance deduction"`
	ClearedDueAmount decimal.Decimal `json:"cleared_due_amount" validate:"min=0"`
}

type PaymentFilter struct {
	UserID string `form:"user_id"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PaymentResponse struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Date             string          `json:"date"`
	Notes            *string         `json:"notes,omitempty"`
	AddedBy          string          `json:"added_by"`
	PaymentType      string          `json:"payment_type"`
	ClearedDueAmount decimal.Decimal `json:"cleared_due_amount"`
	// Recalculated is false when the payment was stored but the ripple
	// recalculation afterwards failed — a degraded state surfaced as a
	// warning, never a rollback of the payment itself.
	Recalculated bool `json:"recalculated"`
}
