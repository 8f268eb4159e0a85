package dto

import "github.com/shopspring/decimal"

// ─── Response DTOs ───────────────────────────────────────────────────────────

type WeeklyBalanceResponse struct {
	UserID    string `json:"user_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Week      int    `json:"week"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`

	TotalMeals           int             `json:"total_meals"`
	TotalPurchases       decimal.Decimal `json:"total_purchases"`
	TotalAdvancePayments decimal.Decimal `json:"total_advance_payments"`
	TotalExpense         decimal.Decimal `json:"total_expense"`

	WeeklyBalance           decimal.Decimal `json:"weekly_balance"`
	AdvanceFromPreviousWeek decimal.Decimal `json:"advance_from_previous_week"`
	AdvanceToNextWeek       decimal.Decimal `json:"advance_to_next_week"`
	IsDue                   bool            `json:"is_due"`
	FinalAmount             decimal.Decimal `json:"final_amount"`
	Status                  string          `json:"status"`

	TotalDueAdjustments decimal.Decimal `json:"total_due_adjustments"`
	AdjustedBalance     decimal.Decimal `json:"adjusted_balance"`

	CalculatedAt string `json:"calculated_at"`
}

// RecalculationSummary reports the outcome of a full rebuild. One member
// failing does not abort the rebuild for the rest — failures are listed.
type RecalculationSummary struct {
	ProcessedCount int      `json:"processed_count"`
	FailedUsers    []string `json:"failed_users,omitempty"`
}

type CurrentAdvanceResponse struct {
	UserID         string          `json:"user_id"`
	AdvanceBalance decimal.Decimal `json:"advance_balance"`
}
