package service

import (
	"messbill/internal/model"

	"github.com/shopspring/decimal"
)

// settlement is the output of the pure balance engine for one week.
type settlement struct {
	WeeklyBalance     decimal.Decimal
	AdvanceToNextWeek decimal.Decimal
	IsDue             bool
	FinalAmount       decimal.Decimal
	Status            string
}

// settle combines a week's aggregates with the advance carried in from the
// previous week. Deterministic and side-effect-free; persistence is the
// caller's job.
//
//	weeklyBalance    = prevAdvance + purchases + payments − expense
//	advanceToNext    = max(weeklyBalance, 0)  — a due never carries forward
//
// A week with no meals, purchases or payments passes the previous advance
// through unchanged.
func settle(prevAdvance, purchases, payments, expense decimal.Decimal) settlement {
	balance := prevAdvance.Add(purchases).Add(payments).Sub(expense)

	s := settlement{
		WeeklyBalance: balance,
		IsDue:         balance.IsNegative(),
		FinalAmount:   balance.Abs(),
		Status:        statusFor(balance),
	}
	if balance.IsPositive() {
		s.AdvanceToNextWeek = balance
	} else {
		s.AdvanceToNextWeek = decimal.Zero
	}
	return s
}

// statusFor classifies a balance: Due | Credit | Balanced.
func statusFor(balance decimal.Decimal) string {
	switch {
	case balance.IsNegative():
		return model.StatusDue
	case balance.IsPositive():
		return model.StatusCredit
	default:
		return model.StatusBalanced
	}
}
