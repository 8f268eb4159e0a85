package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messbill/internal/dto"
	"messbill/internal/mealweek"
	"messbill/internal/model"
	"messbill/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	advanceCachePrefix = "advance:"
	advanceCacheTTL    = 5 * time.Minute
)

type BalanceService interface {
	// CalculateWeek recomputes and stores one member's week.
	CalculateWeek(ctx context.Context, userID uuid.UUID, year, month, week int) (*model.WeeklyBalance, error)
	// MutateBalance applies fn to one stored week under the member's
	// recalculation lock and persists the result, computing the week first
	// when absent. Overlay writers go through here so their read-modify-write
	// serializes with ripples for the same member.
	MutateBalance(ctx context.Context, userID uuid.UUID, year, month, week int, fn func(*model.WeeklyBalance) error) (*model.WeeklyBalance, error)
	GetWeeklyBalance(ctx context.Context, userID uuid.UUID, year, month, week int) (*dto.WeeklyBalanceResponse, error)
	GetMonthlyBreakdown(ctx context.Context, userID uuid.UUID, year, month int) ([]dto.WeeklyBalanceResponse, error)
	// GetCurrentAdvance is a derived read: the latest computed week's
	// advance-to-next. There is deliberately no mutable per-user cache field
	// that could drift from the weekly ledger.
	GetCurrentAdvance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	// RecalculateFromDate ripples a change forward: the week containing the
	// date plus every later week through the present, in strict
	// chronological order.
	RecalculateFromDate(ctx context.Context, userID uuid.UUID, date time.Time) error
	// RecalculateAll rebuilds every member's weeks from the earliest meal or
	// purchase on record through the current week. One member failing does
	// not abort the rest.
	RecalculateAll(ctx context.Context) (*dto.RecalculationSummary, error)
}

type balanceService struct {
	mealRepo     repository.MealRepository
	purchaseRepo repository.PurchaseRepository
	paymentRepo  repository.PaymentRepository
	balanceRepo  repository.BalanceRepository
	userRepo     repository.UserRepository
	adjRepo      repository.AdjustmentRepository
	rdb          *redis.Client
	locks        *userLocks
	now          func() time.Time
}

func NewBalanceService(
	mealRepo repository.MealRepository,
	purchaseRepo repository.PurchaseRepository,
	paymentRepo repository.PaymentRepository,
	balanceRepo repository.BalanceRepository,
	userRepo repository.UserRepository,
	adjRepo repository.AdjustmentRepository,
	rdb *redis.Client,
) BalanceService {
	return &balanceService{
		mealRepo:     mealRepo,
		purchaseRepo: purchaseRepo,
		paymentRepo:  paymentRepo,
		balanceRepo:  balanceRepo,
		userRepo:     userRepo,
		adjRepo:      adjRepo,
		rdb:          rdb,
		locks:        newUserLocks(),
		now:          time.Now,
	}
}

// ── Daily cost allocation ─────────────────────────────────────────────────────

// dayPool aggregates ALL members' activity for a single day. The cost per
// meal divides the pooled purchases by the pooled meal count: whoever buys
// groceries funds whoever eats that day.
type dayPool struct {
	mealCount int
	purchases decimal.Decimal
}

func dayKey(t time.Time) string {
	return mealweek.Truncate(t).Format(dto.DateLayout)
}

// poolWeek loads every member's meals and purchases inside the week and
// buckets them per day.
func (s *balanceService) poolWeek(ctx context.Context, wk mealweek.Week) (map[string]*dayPool, error) {
	meals, err := s.mealRepo.ListByDateRange(ctx, wk.Start, wk.End)
	if err != nil {
		return nil, fmt.Errorf("load meals %d-%02d w%d: %w", wk.Year, wk.Month, wk.Week, err)
	}
	purchases, err := s.purchaseRepo.ListByDateRange(ctx, wk.Start, wk.End)
	if err != nil {
		return nil, fmt.Errorf("load purchases %d-%02d w%d: %w", wk.Year, wk.Month, wk.Week, err)
	}

	pools := make(map[string]*dayPool)
	pool := func(key string) *dayPool {
		p, ok := pools[key]
		if !ok {
			p = &dayPool{purchases: decimal.Zero}
			pools[key] = p
		}
		return p
	}

	for _, m := range meals {
		pool(dayKey(m.Date)).mealCount++
	}
	for _, p := range purchases {
		dp := pool(dayKey(p.Date))
		dp.purchases = dp.purchases.Add(p.Amount)
	}
	return pools, nil
}

// costPerMeal returns the shared daily rate; zero when nobody ate (no meals
// means no cost to allocate, and no division by zero).
func (p *dayPool) costPerMeal() decimal.Decimal {
	if p.mealCount == 0 {
		return decimal.Zero
	}
	return p.purchases.Div(decimal.NewFromInt(int64(p.mealCount)))
}

// ── Weekly aggregation + settlement ───────────────────────────────────────────

// computeWeek derives and upserts one (user, week) balance. Callers must
// hold the user's lock and process weeks in chronological order — each
// week's carry-forward reads the previous week's stored outcome.
func (s *balanceService) computeWeek(ctx context.Context, userID uuid.UUID, wk mealweek.Week) (*model.WeeklyBalance, error) {
	pools, err := s.poolWeek(ctx, wk)
	if err != nil {
		return nil, err
	}

	userMeals, err := s.mealRepo.ListByUserAndDateRange(ctx, userID, wk.Start, wk.End)
	if err != nil {
		return nil, err
	}

	// Expense: the member's meals per day times the GLOBAL cost per meal.
	// One member's weekly total depends on everyone's purchases and meals
	// on shared days.
	mealsPerDay := make(map[string]int)
	for _, m := range userMeals {
		mealsPerDay[dayKey(m.Date)]++
	}
	expense := decimal.Zero
	for key, count := range mealsPerDay {
		cost := pools[key].costPerMeal()
		expense = expense.Add(cost.Mul(decimal.NewFromInt(int64(count))))
	}
	expense = expense.Round(2)

	userPurchases, err := s.purchaseRepo.SumByUserAndDateRange(ctx, userID, wk.Start, wk.End)
	if err != nil {
		return nil, err
	}
	userPayments, err := s.paymentRepo.SumByUserAndDateRange(ctx, userID, wk.Start, wk.End)
	if err != nil {
		return nil, err
	}

	prevAdvance, err := s.carryForward(ctx, userID, wk)
	if err != nil {
		return nil, err
	}

	st := settle(prevAdvance, userPurchases, userPayments, expense)

	// Re-fold the adjustment overlay. The DueAdjustment ledger is the source
	// of truth; recomputing organic numbers must not lose admin overrides.
	totalAdjustments, err := s.adjRepo.SumByUserWeek(ctx, userID, wk.Year, wk.Month, wk.Week)
	if err != nil {
		return nil, err
	}
	adjusted := st.WeeklyBalance.Add(totalAdjustments)

	existing, err := s.balanceRepo.Find(ctx, userID, wk.Year, wk.Month, wk.Week)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	b := existing
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b = &model.WeeklyBalance{UserID: userID, Year: wk.Year, Month: wk.Month, Week: wk.Week}
	}
	b.WeekStart = wk.Start
	b.WeekEnd = wk.End
	b.TotalMeals = len(userMeals)
	b.TotalPurchases = userPurchases
	b.TotalAdvancePayments = userPayments
	b.TotalExpense = expense
	b.WeeklyBalance = st.WeeklyBalance
	b.AdvanceFromPreviousWeek = prevAdvance
	b.AdvanceToNextWeek = st.AdvanceToNextWeek
	b.FinalAmount = st.FinalAmount
	b.TotalDueAdjustments = totalAdjustments
	b.AdjustedBalance = adjusted
	// Display status follows the adjusted balance; identical to the organic
	// one whenever no adjustments exist.
	b.IsDue = adjusted.IsNegative()
	b.Status = statusFor(adjusted)
	b.CalculatedAt = s.now().UTC()

	if b.ID == uuid.Nil {
		if err := s.balanceRepo.Create(ctx, b); err != nil {
			return nil, err
		}
	} else if err := s.balanceRepo.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// carryForward resolves the advance entering a week: the immediately
// preceding week's stored advance-to-next, or zero at the start of a
// member's history. Only the organic balance propagates — adjustments are
// week-local and never cascade.
func (s *balanceService) carryForward(ctx context.Context, userID uuid.UUID, wk mealweek.Week) (decimal.Decimal, error) {
	prev := wk.Previous()
	b, err := s.balanceRepo.Find(ctx, userID, prev.Year, prev.Month, prev.Week)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return b.AdvanceToNextWeek, nil
}

// ── Orchestration ─────────────────────────────────────────────────────────────

func (s *balanceService) CalculateWeek(ctx context.Context, userID uuid.UUID, year, month, week int) (*model.WeeklyBalance, error) {
	wk, err := mealweek.Bounds(year, month, week)
	if err != nil {
		return nil, err
	}
	mu := s.locks.get(userID)
	mu.Lock()
	defer mu.Unlock()
	b, err := s.computeWeek(ctx, userID, wk)
	if err != nil {
		return nil, err
	}
	s.invalidateAdvance(ctx, userID)
	return b, nil
}

func (s *balanceService) MutateBalance(ctx context.Context, userID uuid.UUID, year, month, week int, fn func(*model.WeeklyBalance) error) (*model.WeeklyBalance, error) {
	wk, err := mealweek.Bounds(year, month, week)
	if err != nil {
		return nil, err
	}
	mu := s.locks.get(userID)
	mu.Lock()
	defer mu.Unlock()

	bal, err := s.balanceRepo.Find(ctx, userID, year, month, week)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		bal, err = s.computeWeek(ctx, userID, wk)
	}
	if err != nil {
		return nil, err
	}
	if err := fn(bal); err != nil {
		return nil, err
	}
	if err := s.balanceRepo.Save(ctx, bal); err != nil {
		return nil, err
	}
	s.invalidateAdvance(ctx, userID)
	return bal, nil
}

func (s *balanceService) RecalculateFromDate(ctx context.Context, userID uuid.UUID, date time.Time) error {
	mu := s.locks.get(userID)
	mu.Lock()
	defer mu.Unlock()

	// Every week from the trigger through the present is recomputed
	// unconditionally — no convergence short-circuit, so CalculatedAt
	// always advances on every touched week.
	weeks := mealweek.Range(mealweek.Truncate(date), s.now().UTC())
	for _, wk := range weeks {
		if _, err := s.computeWeek(ctx, userID, wk); err != nil {
			return fmt.Errorf("recalculate %d-%02d w%d: %w", wk.Year, wk.Month, wk.Week, err)
		}
	}
	s.invalidateAdvance(ctx, userID)
	return nil
}

func (s *balanceService) RecalculateAll(ctx context.Context) (*dto.RecalculationSummary, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// A full rebuild starts from a clean slate: cached weeks whose underlying
	// facts have since vanished must not survive as stale orphans. Only the
	// derived rows are dropped — the adjustment ledger stays, and computeWeek
	// re-folds it onto the fresh organic numbers.
	if err := s.balanceRepo.DeleteAll(ctx); err != nil {
		return nil, err
	}
	for _, u := range users {
		s.invalidateAdvance(ctx, u.ID)
	}

	summary := &dto.RecalculationSummary{}
	earliest, err := s.earliestRecordDate(ctx)
	if err != nil {
		return nil, err
	}
	if earliest == nil {
		return summary, nil // nothing on record yet
	}

	weeks := mealweek.Range(*earliest, s.now().UTC())
	for _, u := range users {
		if err := s.rebuildUser(ctx, u.ID, weeks); err != nil {
			log.Error().Err(err).Str("user", u.Username).Msg("full rebuild: member failed, continuing")
			summary.FailedUsers = append(summary.FailedUsers, u.Username)
			continue
		}
		summary.ProcessedCount += len(weeks)
	}
	return summary, nil
}

func (s *balanceService) rebuildUser(ctx context.Context, userID uuid.UUID, weeks []mealweek.Week) error {
	mu := s.locks.get(userID)
	mu.Lock()
	defer mu.Unlock()

	// Per-user chronological order is the hard constraint; cross-user order
	// is irrelevant since members only share daily pools, never balances.
	for _, wk := range weeks {
		if _, err := s.computeWeek(ctx, userID, wk); err != nil {
			return err
		}
	}
	s.invalidateAdvance(ctx, userID)
	return nil
}

func (s *balanceService) earliestRecordDate(ctx context.Context) (*time.Time, error) {
	mealMin, err := s.mealRepo.EarliestDate(ctx)
	if err != nil {
		return nil, err
	}
	purchaseMin, err := s.purchaseRepo.EarliestDate(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case mealMin == nil:
		return purchaseMin, nil
	case purchaseMin == nil:
		return mealMin, nil
	case purchaseMin.Before(*mealMin):
		return purchaseMin, nil
	default:
		return mealMin, nil
	}
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *balanceService) GetWeeklyBalance(ctx context.Context, userID uuid.UUID, year, month, week int) (*dto.WeeklyBalanceResponse, error) {
	if _, err := mealweek.Bounds(year, month, week); err != nil {
		return nil, err
	}
	b, err := s.balanceRepo.Find(ctx, userID, year, month, week)
	if err != nil {
		return nil, err
	}
	resp := BalanceToResponse(b)
	return &resp, nil
}

func (s *balanceService) GetMonthlyBreakdown(ctx context.Context, userID uuid.UUID, year, month int) ([]dto.WeeklyBalanceResponse, error) {
	balances, err := s.balanceRepo.ListByUserMonth(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.WeeklyBalanceResponse, len(balances))
	for i := range balances {
		resp[i] = BalanceToResponse(&balances[i])
	}
	return resp, nil
}

func (s *balanceService) GetCurrentAdvance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	cacheKey := advanceCachePrefix + userID.String()
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			if v, err := decimal.NewFromString(cached); err == nil {
				return v, nil
			}
		}
	}

	latest, err := s.balanceRepo.FindLatest(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey, latest.AdvanceToNextWeek.String(), advanceCacheTTL).Err(); err != nil {
			log.Warn().Err(err).Msg("advance cache: set failed")
		}
	}
	return latest.AdvanceToNextWeek, nil
}

func (s *balanceService) invalidateAdvance(ctx context.Context, userID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, advanceCachePrefix+userID.String()).Err(); err != nil {
		log.Warn().Err(err).Msg("advance cache: invalidate failed")
	}
}

// BalanceToResponse maps the stored row onto the wire shape.
func BalanceToResponse(b *model.WeeklyBalance) dto.WeeklyBalanceResponse {
	return dto.WeeklyBalanceResponse{
		UserID:                  b.UserID.String(),
		Year:                    b.Year,
		Month:                   b.Month,
		Week:                    b.Week,
		WeekStart:               b.WeekStart.Format(dto.DateLayout),
		WeekEnd:                 b.WeekEnd.Format(dto.DateLayout),
		TotalMeals:              b.TotalMeals,
		TotalPurchases:          b.TotalPurchases,
		TotalAdvancePayments:    b.TotalAdvancePayments,
		TotalExpense:            b.TotalExpense,
		WeeklyBalance:           b.WeeklyBalance,
		AdvanceFromPreviousWeek: b.AdvanceFromPreviousWeek,
		AdvanceToNextWeek:       b.AdvanceToNextWeek,
		IsDue:                   b.IsDue,
		FinalAmount:             b.FinalAmount,
		Status:                  b.Status,
		TotalDueAdjustments:     b.TotalDueAdjustments,
		AdjustedBalance:         b.AdjustedBalance,
		CalculatedAt:            b.CalculatedAt.Format(time.RFC3339),
	}
}
