package service

import "errors"

// Sentinel errors surfaced to the handler layer, which maps them onto HTTP
// statuses. Storage-level constraint violations are translated into these
// rather than leaked raw.
var (
	ErrUserNotFound            = errors.New("user not found")
	ErrDuplicateMeal           = errors.New("a meal already exists for this member on this date")
	ErrPastMealDelete          = errors.New("meals on past dates can only be removed by an admin")
	ErrNotOwner                = errors.New("record belongs to another member")
	ErrInvalidAdjustmentAmount = errors.New("adjustment amount must be greater than zero")
)
