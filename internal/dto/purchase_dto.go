package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreatePurchaseRequest struct {
	Date   string          `json:"date"   validate:"required,datetime=2006-01-02"`
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
	Notes  *string         `json:"notes"`
}

// UpdatePurchaseRequest is a partial update: omitted fields keep their
// stored values.
type UpdatePurchaseRequest struct {
	Date   string           `json:"date"   validate:"omitempty,datetime=2006-01-02"`
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,min=0"`
	Notes  *string          `json:"notes"`
}

type PurchaseFilter struct {
	UserID string `form:"user_id"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PurchaseResponse struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        *string         `json:"notes,omitempty"`
	Recalculated bool            `json:"recalculated"`
}
