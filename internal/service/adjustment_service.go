package service

import (
	"context"
	"fmt"
	"time"

	"messbill/internal/dto"
	"messbill/internal/model"
	"messbill/internal/repository"
	"messbill/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Adjustment types.
const (
	AdjustmentCredit   = "credit"
	AdjustmentDebit    = "debit"
	AdjustmentClearDue = "clear_due"
)

type AdjustmentService interface {
	// Apply nudges a stored weekly balance without touching the underlying
	// meal/purchase facts. The target balance is computed first if absent.
	Apply(ctx context.Context, addedBy uuid.UUID, req dto.ApplyAdjustmentRequest) (*dto.AdjustmentResponse, error)
	// Reverse restores the pre-adjustment balance by replaying the inverse
	// of the recorded delta — no full recalculation involved.
	Reverse(ctx context.Context, adjustmentID uuid.UUID) (*dto.AdjustmentResponse, error)
	List(ctx context.Context, filter dto.AdjustmentFilter) ([]dto.AdjustmentResponse, error)
}

type adjustmentService struct {
	adjRepo    repository.AdjustmentRepository
	userRepo   repository.UserRepository
	balances   BalanceService
	dispatcher *worker.Dispatcher
}

func NewAdjustmentService(
	adjRepo repository.AdjustmentRepository,
	userRepo repository.UserRepository,
	balances BalanceService,
	dispatcher *worker.Dispatcher,
) AdjustmentService {
	return &adjustmentService{
		adjRepo:    adjRepo,
		userRepo:   userRepo,
		balances:   balances,
		dispatcher: dispatcher,
	}
}

func (s *adjustmentService) Apply(ctx context.Context, addedBy uuid.UUID, req dto.ApplyAdjustmentRequest) (*dto.AdjustmentResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	switch req.Type {
	case AdjustmentCredit, AdjustmentDebit, AdjustmentClearDue:
	default:
		return nil, fmt.Errorf("unknown adjustment type %q", req.Type)
	}
	if req.Type != AdjustmentClearDue && !req.Amount.IsPositive() {
		return nil, ErrInvalidAdjustmentAmount
	}

	// The whole read-modify-write runs under the member's recalculation
	// lock: the ledger entry is created against the balance it was derived
	// from, and no ripple can slip in between.
	var adj *model.DueAdjustment
	bal, err := s.balances.MutateBalance(ctx, userID, req.Year, req.Month, req.Week, func(bal *model.WeeklyBalance) error {
		previous := bal.AdjustedBalance
		var newBalance decimal.Decimal
		switch req.Type {
		case AdjustmentCredit:
			newBalance = previous.Add(req.Amount)
		case AdjustmentDebit:
			newBalance = previous.Sub(req.Amount)
		case AdjustmentClearDue:
			// Forces the adjusted balance to exactly zero whatever it was.
			newBalance = decimal.Zero
		}
		delta := newBalance.Sub(previous)

		adj = &model.DueAdjustment{
			UserID:           userID,
			Year:             req.Year,
			Month:            req.Month,
			Week:             req.Week,
			AdjustmentAmount: delta,
			AdjustmentType:   req.Type,
			PreviousBalance:  previous,
			NewBalance:       newBalance,
			Reason:           req.Reason,
			Notes:            req.Notes,
			AddedBy:          addedBy,
			AdjustmentDate:   time.Now().UTC(),
		}
		if err := s.adjRepo.Create(ctx, adj); err != nil {
			return err
		}

		bal.TotalDueAdjustments = bal.TotalDueAdjustments.Add(delta)
		bal.AdjustedBalance = newBalance
		bal.IsDue = newBalance.IsNegative()
		bal.Status = statusFor(newBalance)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, user, adj)

	resp := adjustmentToResponse(adj)
	balResp := BalanceToResponse(bal)
	resp.Balance = &balResp
	return &resp, nil
}

func (s *adjustmentService) Reverse(ctx context.Context, adjustmentID uuid.UUID) (*dto.AdjustmentResponse, error) {
	adj, err := s.adjRepo.FindByID(ctx, adjustmentID)
	if err != nil {
		return nil, err
	}

	// Inverse replay of the recorded delta restores adjusted balance, net
	// adjustments, due flag and status to their pre-adjustment values. Runs
	// under the member's recalculation lock like Apply.
	bal, err := s.balances.MutateBalance(ctx, adj.UserID, adj.Year, adj.Month, adj.Week, func(bal *model.WeeklyBalance) error {
		bal.TotalDueAdjustments = bal.TotalDueAdjustments.Sub(adj.AdjustmentAmount)
		bal.AdjustedBalance = bal.AdjustedBalance.Sub(adj.AdjustmentAmount)
		bal.IsDue = bal.AdjustedBalance.IsNegative()
		bal.Status = statusFor(bal.AdjustedBalance)
		return s.adjRepo.Delete(ctx, adjustmentID)
	})
	if err != nil {
		return nil, err
	}

	resp := adjustmentToResponse(adj)
	balResp := BalanceToResponse(bal)
	resp.Balance = &balResp
	return &resp, nil
}

func (s *adjustmentService) List(ctx context.Context, filter dto.AdjustmentFilter) ([]dto.AdjustmentResponse, error) {
	adjustments, err := s.adjRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AdjustmentResponse, len(adjustments))
	for i := range adjustments {
		resp[i] = adjustmentToResponse(&adjustments[i])
	}
	return resp, nil
}

// notify enqueues an adjustment notice email; a queue failure is logged and
// never blocks the adjustment itself.
func (s *adjustmentService) notify(ctx context.Context, user *model.User, adj *model.DueAdjustment) {
	if s.dispatcher == nil || user.Email == nil {
		return
	}
	payload := worker.EmailJobPayload{
		ToEmail: *user.Email,
		Subject: fmt.Sprintf("Balance adjustment for %d-%02d week %d", adj.Year, adj.Month, adj.Week),
		Body: fmt.Sprintf("An adjustment of %s (%s) was applied to your weekly balance. Reason: %s",
			adj.AdjustmentAmount.StringFixed(2), adj.AdjustmentType, adj.Reason),
	}
	if err := s.dispatcher.EnqueueEmail(ctx, payload); err != nil {
		log.Warn().Err(err).Str("user", user.Username).Msg("adjustment notice: enqueue failed")
	}
}

func adjustmentToResponse(a *model.DueAdjustment) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:               a.ID.String(),
		UserID:           a.UserID.String(),
		Year:             a.Year,
		Month:            a.Month,
		Week:             a.Week,
		AdjustmentAmount: a.AdjustmentAmount,
		AdjustmentType:   a.AdjustmentType,
		PreviousBalance:  a.PreviousBalance,
		NewBalance:       a.NewBalance,
		Reason:           a.Reason,
		Notes:            a.Notes,
		AddedBy:          a.AddedBy.String(),
		AdjustmentDate:   a.AdjustmentDate.Format(time.RFC3339),
	}
}
