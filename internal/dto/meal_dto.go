package dto

// DateLayout is the wire format for all day-granularity dates.
const DateLayout = "2006-01-02"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateMealRequest struct {
	// UserID may only be set by an admin recording a meal on a member's behalf.
	UserID      *string `json:"user_id"     validate:"omitempty,uuid"`
	Date        string  `json:"date"        validate:"required,datetime=2006-01-02"`
	MealType    string  `json:"meal_type"   validate:"required,oneof=breakfast lunch dinner"`
	Description *string `json:"description"`
}

type MealFilter struct {
	UserID string `form:"user_id"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MealResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"`
	MealType    string  `json:"meal_type"`
	Description *string `json:"description,omitempty"`
}
