package service

import (
	"context"
	"time"

	"messbill/internal/dto"
	"messbill/internal/mealweek"
	"messbill/internal/model"
	"messbill/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type PurchaseService interface {
	Create(ctx context.Context, actorID uuid.UUID, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error)
	Update(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, req dto.UpdatePurchaseRequest) (*dto.PurchaseResponse, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error
	List(ctx context.Context, filter dto.PurchaseFilter) ([]dto.PurchaseResponse, error)
}

type purchaseService struct {
	repo     repository.PurchaseRepository
	balances BalanceService
	now      func() time.Time
}

func NewPurchaseService(repo repository.PurchaseRepository, balances BalanceService) PurchaseService {
	return &purchaseService{repo: repo, balances: balances, now: time.Now}
}

func (s *purchaseService) Create(ctx context.Context, actorID uuid.UUID, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	p := &model.Purchase{
		UserID: actorID,
		Date:   date,
		Amount: req.Amount,
		Notes:  req.Notes,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	recalculated := s.recalc(ctx, actorID, date, "purchase create")
	resp := purchaseToResponse(p, recalculated)
	return &resp, nil
}

func (s *purchaseService) Update(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, req dto.UpdatePurchaseRequest) (*dto.PurchaseResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID && actorRole != model.RoleAdmin {
		return nil, ErrNotOwner
	}

	// A retroactive edit must ripple from the EARLIER of the old and new
	// dates — moving a purchase forward still invalidates the week it left.
	rippleFrom := p.Date
	if req.Date != "" {
		newDate, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		if newDate.Before(rippleFrom) {
			rippleFrom = newDate
		}
		p.Date = newDate
	}
	if req.Amount != nil {
		p.Amount = *req.Amount
	}
	if req.Notes != nil {
		p.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	recalculated := s.recalc(ctx, p.UserID, rippleFrom, "purchase update")
	resp := purchaseToResponse(p, recalculated)
	return &resp, nil
}

func (s *purchaseService) Delete(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != actorID && actorRole != model.RoleAdmin {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recalc(ctx, p.UserID, p.Date, "purchase delete")
	return nil
}

func (s *purchaseService) List(ctx context.Context, filter dto.PurchaseFilter) ([]dto.PurchaseResponse, error) {
	// Default to the current month when no range is given.
	today := mealweek.Truncate(s.now().UTC())
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := today

	var err error
	if filter.From != "" {
		if from, err = parseDate(filter.From); err != nil {
			return nil, err
		}
	}
	if filter.To != "" {
		if to, err = parseDate(filter.To); err != nil {
			return nil, err
		}
	}

	var purchases []model.Purchase
	if filter.UserID != "" {
		userID, err := uuid.Parse(filter.UserID)
		if err != nil {
			return nil, err
		}
		purchases, err = s.repo.ListByUserAndDateRange(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
	} else {
		purchases, err = s.repo.ListByDateRange(ctx, from, to)
		if err != nil {
			return nil, err
		}
	}

	resp := make([]dto.PurchaseResponse, len(purchases))
	for i := range purchases {
		resp[i] = purchaseToResponse(&purchases[i], true)
	}
	return resp, nil
}

// recalc triggers the forward ripple and reports whether it succeeded. The
// write it follows is never rolled back: a failed recalculation is a
// degraded state surfaced to the client, not a fatal error.
func (s *purchaseService) recalc(ctx context.Context, userID uuid.UUID, from time.Time, op string) bool {
	if err := s.balances.RecalculateFromDate(ctx, userID, from); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Str("op", op).Msg("recalculation failed")
		return false
	}
	return true
}

func purchaseToResponse(p *model.Purchase, recalculated bool) dto.PurchaseResponse {
	return dto.PurchaseResponse{
		ID:           p.ID.String(),
		UserID:       p.UserID.String(),
		Date:         p.Date.Format(dto.DateLayout),
		Amount:       p.Amount,
		Notes:        p.Notes,
		Recalculated: recalculated,
	}
}
