package service

import (
	"context"
	"fmt"

	"messbill/internal/dto"
	"messbill/internal/model"
	"messbill/internal/repository"
	"messbill/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type PaymentService interface {
	// Create appends an advance-payment ledger entry and ripples the
	// member's balances forward. Two-phase by contract: the payment commits
	// first, then recalculation runs as a distinct step whose failure is
	// reported in the response, never rolled into the write.
	Create(ctx context.Context, addedBy uuid.UUID, req dto.CreatePaymentRequest) (*dto.PaymentResponse, error)
	// Delete reverses a payment's effect by removing the entry and
	// recalculating — history is never edited.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.PaymentFilter) ([]dto.PaymentResponse, error)
}

type paymentService struct {
	repo       repository.PaymentRepository
	userRepo   repository.UserRepository
	balances   BalanceService
	dispatcher *worker.Dispatcher
}

func NewPaymentService(
	repo repository.PaymentRepository,
	userRepo repository.UserRepository,
	balances BalanceService,
	dispatcher *worker.Dispatcher,
) PaymentService {
	return &paymentService{repo: repo, userRepo: userRepo, balances: balances, dispatcher: dispatcher}
}

func (s *paymentService) Create(ctx context.Context, addedBy uuid.UUID, req dto.CreatePaymentRequest) (*dto.PaymentResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("payment amount must be non-zero")
	}

	p := &model.AdvancePayment{
		UserID:           userID,
		Amount:           req.Amount,
		Date:             date,
		Notes:            req.Notes,
		AddedBy:          addedBy,
		PaymentType:      req.PaymentType,
		ClearedDueAmount: req.ClearedDueAmount,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	recalculated := true
	if err := s.balances.RecalculateFromDate(ctx, userID, date); err != nil {
		log.Warn().Err(err).Str("user", user.Username).Msg("payment create: recalculation failed, balances may be stale")
		recalculated = false
	}

	s.notify(ctx, user, p)

	resp := paymentToResponse(p, recalculated)
	return &resp, nil
}

func (s *paymentService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Ripple from the payment's week through the present; earlier weeks
	// are untouched.
	if err := s.balances.RecalculateFromDate(ctx, p.UserID, p.Date); err != nil {
		log.Warn().Err(err).Str("user_id", p.UserID.String()).Msg("payment delete: recalculation failed, balances may be stale")
	}
	return nil
}

func (s *paymentService) List(ctx context.Context, filter dto.PaymentFilter) ([]dto.PaymentResponse, error) {
	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		resp[i] = paymentToResponse(&payments[i], true)
	}
	return resp, nil
}

// notify enqueues a payment-notice email to the member; queue failures are
// logged and never block the payment.
func (s *paymentService) notify(ctx context.Context, user *model.User, p *model.AdvancePayment) {
	if s.dispatcher == nil || user.Email == nil {
		return
	}
	payload := worker.EmailJobPayload{
		ToEmail: *user.Email,
		Subject: "Payment recorded",
		Body: fmt.Sprintf("A %s of %s dated %s was recorded on your account.",
			p.PaymentType, p.Amount.StringFixed(2), p.Date.Format(dto.DateLayout)),
	}
	if err := s.dispatcher.EnqueueEmail(ctx, payload); err != nil {
		log.Warn().Err(err).Str("user", user.Username).Msg("payment notice: enqueue failed")
	}
}

func paymentToResponse(p *model.AdvancePayment, recalculated bool) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:               p.ID.String(),
		UserID:           p.UserID.String(),
		Amount:           p.Amount,
		Date:             p.Date.Format(dto.DateLayout),
		Notes:            p.Notes,
		AddedBy:          p.AddedBy.String(),
		PaymentType:      p.PaymentType,
		ClearedDueAmount: p.ClearedDueAmount,
		Recalculated:     recalculated,
	}
}
