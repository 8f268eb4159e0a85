package service

// In-memory repository fakes shared by the service tests. They mirror the
// Postgres implementations closely enough for the billing math: inclusive
// date ranges, chronological ordering, and gorm.ErrRecordNotFound on misses.

import (
	"context"
	"sort"
	"time"

	"messbill/internal/dto"
	"messbill/internal/model"
	"messbill/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

// ── Users ─────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) add(name string) *model.User {
	u := &model.User{ID: uuid.New(), Username: name, Name: name, Role: model.RoleMember, Active: true}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

func (r *fakeUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = true
	return nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

// ── Meals ─────────────────────────────────────────────────────────────────────

type fakeMealRepo struct {
	meals map[uuid.UUID]*model.Meal
}

func newFakeMealRepo() *fakeMealRepo {
	return &fakeMealRepo{meals: make(map[uuid.UUID]*model.Meal)}
}

func (r *fakeMealRepo) Create(_ context.Context, m *model.Meal) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.meals[m.ID] = m
	return nil
}

func (r *fakeMealRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Meal, error) {
	m, ok := r.meals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *fakeMealRepo) ExistsForUserDate(_ context.Context, userID uuid.UUID, date time.Time) (bool, error) {
	for _, m := range r.meals {
		if m.UserID == userID && m.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMealRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.meals, id)
	return nil
}

func (r *fakeMealRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.Meal, error) {
	var out []model.Meal
	for _, m := range r.meals {
		if inRange(m.Date, from, to) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeMealRepo) ListByUserAndDateRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.Meal, error) {
	var out []model.Meal
	for _, m := range r.meals {
		if m.UserID == userID && inRange(m.Date, from, to) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeMealRepo) EarliestDate(_ context.Context) (*time.Time, error) {
	var earliest *time.Time
	for _, m := range r.meals {
		if earliest == nil || m.Date.Before(*earliest) {
			d := m.Date
			earliest = &d
		}
	}
	return earliest, nil
}

var _ repository.MealRepository = (*fakeMealRepo)(nil)

// ── Purchases ─────────────────────────────────────────────────────────────────

type fakePurchaseRepo struct {
	purchases map[uuid.UUID]*model.Purchase
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: make(map[uuid.UUID]*model.Purchase)}
}

func (r *fakePurchaseRepo) Create(_ context.Context, p *model.Purchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.purchases[p.ID] = p
	return nil
}

func (r *fakePurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePurchaseRepo) Update(_ context.Context, p *model.Purchase) error {
	r.purchases[p.ID] = p
	return nil
}

func (r *fakePurchaseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.purchases, id)
	return nil
}

func (r *fakePurchaseRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.Purchase, error) {
	var out []model.Purchase
	for _, p := range r.purchases {
		if inRange(p.Date, from, to) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakePurchaseRepo) ListByUserAndDateRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.Purchase, error) {
	var out []model.Purchase
	for _, p := range r.purchases {
		if p.UserID == userID && inRange(p.Date, from, to) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakePurchaseRepo) SumByUserAndDateRange(_ context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.purchases {
		if p.UserID == userID && inRange(p.Date, from, to) {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *fakePurchaseRepo) EarliestDate(_ context.Context) (*time.Time, error) {
	var earliest *time.Time
	for _, p := range r.purchases {
		if earliest == nil || p.Date.Before(*earliest) {
			d := p.Date
			earliest = &d
		}
	}
	return earliest, nil
}

var _ repository.PurchaseRepository = (*fakePurchaseRepo)(nil)

// ── Payments ──────────────────────────────────────────────────────────────────

type fakePaymentRepo struct {
	payments map[uuid.UUID]*model.AdvancePayment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*model.AdvancePayment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *model.AdvancePayment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.AdvancePayment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) List(_ context.Context, filter dto.PaymentFilter) ([]model.AdvancePayment, error) {
	var out []model.AdvancePayment
	for _, p := range r.payments {
		if filter.UserID != "" && p.UserID.String() != filter.UserID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakePaymentRepo) SumByUserAndDateRange(_ context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.UserID == userID && inRange(p.Date, from, to) {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

var _ repository.PaymentRepository = (*fakePaymentRepo)(nil)

// ── Weekly balances ───────────────────────────────────────────────────────────

type weekKey struct {
	user              uuid.UUID
	year, month, week int
}

type fakeBalanceRepo struct {
	balances map[weekKey]*model.WeeklyBalance
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{balances: make(map[weekKey]*model.WeeklyBalance)}
}

func (r *fakeBalanceRepo) key(b *model.WeeklyBalance) weekKey {
	return weekKey{b.UserID, b.Year, b.Month, b.Week}
}

func (r *fakeBalanceRepo) Create(_ context.Context, b *model.WeeklyBalance) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.balances[r.key(b)] = b
	return nil
}

func (r *fakeBalanceRepo) Save(_ context.Context, b *model.WeeklyBalance) error {
	r.balances[r.key(b)] = b
	return nil
}

func (r *fakeBalanceRepo) Find(_ context.Context, userID uuid.UUID, year, month, week int) (*model.WeeklyBalance, error) {
	b, ok := r.balances[weekKey{userID, year, month, week}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *fakeBalanceRepo) ListByUserMonth(_ context.Context, userID uuid.UUID, year, month int) ([]model.WeeklyBalance, error) {
	var out []model.WeeklyBalance
	for _, b := range r.balances {
		if b.UserID == userID && b.Year == year && b.Month == month {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out, nil
}

func (r *fakeBalanceRepo) FindLatest(_ context.Context, userID uuid.UUID) (*model.WeeklyBalance, error) {
	var latest *model.WeeklyBalance
	for _, b := range r.balances {
		if b.UserID != userID {
			continue
		}
		if latest == nil ||
			b.Year > latest.Year ||
			(b.Year == latest.Year && b.Month > latest.Month) ||
			(b.Year == latest.Year && b.Month == latest.Month && b.Week > latest.Week) {
			latest = b
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *fakeBalanceRepo) DeleteAll(_ context.Context) error {
	r.balances = make(map[weekKey]*model.WeeklyBalance)
	return nil
}

var _ repository.BalanceRepository = (*fakeBalanceRepo)(nil)

// ── Due adjustments ───────────────────────────────────────────────────────────

type fakeAdjustmentRepo struct {
	adjustments map[uuid.UUID]*model.DueAdjustment
}

func newFakeAdjustmentRepo() *fakeAdjustmentRepo {
	return &fakeAdjustmentRepo{adjustments: make(map[uuid.UUID]*model.DueAdjustment)}
}

func (r *fakeAdjustmentRepo) Create(_ context.Context, a *model.DueAdjustment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.adjustments[a.ID] = a
	return nil
}

func (r *fakeAdjustmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DueAdjustment, error) {
	a, ok := r.adjustments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *fakeAdjustmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.adjustments, id)
	return nil
}

func (r *fakeAdjustmentRepo) List(_ context.Context, filter dto.AdjustmentFilter) ([]model.DueAdjustment, error) {
	var out []model.DueAdjustment
	for _, a := range r.adjustments {
		if filter.UserID != "" && a.UserID.String() != filter.UserID {
			continue
		}
		if filter.Year != 0 && a.Year != filter.Year {
			continue
		}
		if filter.Month != 0 && a.Month != filter.Month {
			continue
		}
		if filter.Week != 0 && a.Week != filter.Week {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdjustmentDate.Before(out[j].AdjustmentDate) })
	return out, nil
}

func (r *fakeAdjustmentRepo) SumByUserWeek(_ context.Context, userID uuid.UUID, year, month, week int) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.adjustments {
		if a.UserID == userID && a.Year == year && a.Month == month && a.Week == week {
			sum = sum.Add(a.AdjustmentAmount)
		}
	}
	return sum, nil
}

var _ repository.AdjustmentRepository = (*fakeAdjustmentRepo)(nil)
