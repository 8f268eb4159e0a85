package service

import (
	"context"
	"fmt"
	"time"

	"messbill/internal/dto"
	"messbill/internal/mealweek"
	"messbill/internal/model"
	"messbill/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type MealService interface {
	Create(ctx context.Context, actorID uuid.UUID, actorRole string, req dto.CreateMealRequest) (*dto.MealResponse, error)
	List(ctx context.Context, filter dto.MealFilter) ([]dto.MealResponse, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error
}

type mealService struct {
	repo     repository.MealRepository
	userRepo repository.UserRepository
	balances BalanceService
	now      func() time.Time
}

func NewMealService(repo repository.MealRepository, userRepo repository.UserRepository, balances BalanceService) MealService {
	return &mealService{repo: repo, userRepo: userRepo, balances: balances, now: time.Now}
}

func (s *mealService) Create(ctx context.Context, actorID uuid.UUID, actorRole string, req dto.CreateMealRequest) (*dto.MealResponse, error) {
	// Admins may record a meal on a member's behalf; everyone else may only
	// record their own.
	targetID := actorID
	if req.UserID != nil {
		id, err := uuid.Parse(*req.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid user_id: %w", err)
		}
		if id != actorID && actorRole != model.RoleAdmin {
			return nil, ErrNotOwner
		}
		targetID = id
	}
	if _, err := s.userRepo.FindByID(ctx, targetID); err != nil {
		return nil, ErrUserNotFound
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	// One meal record per member per calendar day. Checked here for a clean
	// error; the composite unique index backs it up under races.
	exists, err := s.repo.ExistsForUserDate(ctx, targetID, date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateMeal
	}

	meal := &model.Meal{
		UserID:      targetID,
		Date:        date,
		MealType:    req.MealType,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, meal); err != nil {
		return nil, err
	}

	// A new meal changes the daily denominator, so the member's weeks from
	// this date forward need re-deriving. Failure leaves the record in
	// place and is surfaced as a warning.
	if err := s.balances.RecalculateFromDate(ctx, targetID, date); err != nil {
		log.Warn().Err(err).Str("user_id", targetID.String()).Msg("meal create: recalculation failed")
	}

	resp := mealToResponse(meal)
	return &resp, nil
}

func (s *mealService) List(ctx context.Context, filter dto.MealFilter) ([]dto.MealResponse, error) {
	from, to, err := s.rangeOrCurrentMonth(filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	var meals []model.Meal
	if filter.UserID != "" {
		userID, err := uuid.Parse(filter.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid user_id: %w", err)
		}
		meals, err = s.repo.ListByUserAndDateRange(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
	} else {
		meals, err = s.repo.ListByDateRange(ctx, from, to)
		if err != nil {
			return nil, err
		}
	}

	resp := make([]dto.MealResponse, len(meals))
	for i := range meals {
		resp[i] = mealToResponse(&meals[i])
	}
	return resp, nil
}

func (s *mealService) Delete(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error {
	meal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if meal.UserID != actorID && actorRole != model.RoleAdmin {
		return ErrNotOwner
	}

	today := mealweek.Truncate(s.now().UTC())
	if mealweek.Truncate(meal.Date).Before(today) && actorRole != model.RoleAdmin {
		return ErrPastMealDelete
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.balances.RecalculateFromDate(ctx, meal.UserID, meal.Date); err != nil {
		log.Warn().Err(err).Str("user_id", meal.UserID.String()).Msg("meal delete: recalculation failed")
	}
	return nil
}

func (s *mealService) rangeOrCurrentMonth(fromStr, toStr string) (time.Time, time.Time, error) {
	now := mealweek.Truncate(s.now().UTC())
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now

	var err error
	if fromStr != "" {
		if from, err = parseDate(fromStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		if to, err = parseDate(toStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func mealToResponse(m *model.Meal) dto.MealResponse {
	return dto.MealResponse{
		ID:          m.ID.String(),
		UserID:      m.UserID.String(),
		Date:        m.Date.Format(dto.DateLayout),
		MealType:    m.MealType,
		Description: m.Description,
	}
}
