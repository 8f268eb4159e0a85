package service

import (
	"context"
	"testing"
	"time"

	"messbill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture wires a balance service against in-memory repos with a frozen
// clock. Tests move f.now to simulate the passage of weeks.
type fixture struct {
	users       *fakeUserRepo
	meals       *fakeMealRepo
	purchases   *fakePurchaseRepo
	payments    *fakePaymentRepo
	balanceRepo *fakeBalanceRepo
	adjustments *fakeAdjustmentRepo
	svc         *balanceService
	now         time.Time
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		users:       newFakeUserRepo(),
		meals:       newFakeMealRepo(),
		purchases:   newFakePurchaseRepo(),
		payments:    newFakePaymentRepo(),
		balanceRepo: newFakeBalanceRepo(),
		adjustments: newFakeAdjustmentRepo(),
		now:         now,
	}
	f.svc = NewBalanceService(f.meals, f.purchases, f.payments, f.balanceRepo, f.users, f.adjustments, nil).(*balanceService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) addMeal(userID uuid.UUID, date time.Time) {
	_ = f.meals.Create(context.Background(), &model.Meal{UserID: userID, Date: date, MealType: "lunch"})
}

func (f *fixture) addPurchase(userID uuid.UUID, date time.Time, amount int64) {
	_ = f.purchases.Create(context.Background(), &model.Purchase{
		UserID: userID, Date: date, Amount: decimal.NewFromInt(amount),
	})
}

func (f *fixture) addPayment(userID uuid.UUID, date time.Time, amount int64) *model.AdvancePayment {
	p := &model.AdvancePayment{
		UserID: userID, Date: date, Amount: decimal.NewFromInt(amount),
		AddedBy: uuid.New(), PaymentType: "advance",
	}
	_ = f.payments.Create(context.Background(), p)
	return p
}

// June 2026 has 30 days: week 1 = 1-7, week 2 = 8-14, week 3 = 15-21,
// week 5 = 29-30.
func june(day int) time.Time {
	return time.Date(2026, 6, day, 0, 0, 0, 0, time.UTC)
}

func july(day int) time.Time {
	return time.Date(2026, 7, day, 0, 0, 0, 0, time.UTC)
}

func eq(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got)
}

func TestCalculateWeek_SharedCostAllocation(t *testing.T) {
	f := newFixture(june(7))
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	carl := f.users.add("carl")

	// One day of activity: alice buys 30, all three eat. Cost per meal 10.
	f.addPurchase(alice.ID, june(2), 30)
	f.addMeal(alice.ID, june(2))
	f.addMeal(bob.ID, june(2))
	f.addMeal(carl.ID, june(2))

	a, err := f.svc.CalculateWeek(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	eq(t, 30, a.TotalPurchases)
	eq(t, 10, a.TotalExpense)
	eq(t, 20, a.WeeklyBalance) // 0 + 30 + 0 − 10
	eq(t, 20, a.AdvanceToNextWeek)
	assert.Equal(t, model.StatusCredit, a.Status)
	assert.False(t, a.IsDue)

	b, err := f.svc.CalculateWeek(context.Background(), bob.ID, 2026, 6, 1)
	require.NoError(t, err)
	eq(t, 0, b.TotalPurchases)
	eq(t, 10, b.TotalExpense)
	eq(t, -10, b.WeeklyBalance)
	eq(t, 0, b.AdvanceToNextWeek) // dues never carry forward
	eq(t, 10, b.FinalAmount)
	assert.Equal(t, model.StatusDue, b.Status)
	assert.True(t, b.IsDue)
}

func TestCalculateWeek_NoMealsNoCost(t *testing.T) {
	f := newFixture(june(7))
	alice := f.users.add("alice")

	// A purchase on a day nobody ate allocates no expense to anyone.
	f.addPurchase(alice.ID, june(3), 50)

	b, err := f.svc.CalculateWeek(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	eq(t, 0, b.TotalExpense)
	eq(t, 50, b.WeeklyBalance)
	assert.Equal(t, 0, b.TotalMeals)
}

func TestCalculateWeek_EmptyWeekPassesAdvanceThrough(t *testing.T) {
	f := newFixture(june(14))
	alice := f.users.add("alice")
	f.users.add("bob")

	bob, _ := f.users.FindByUsername(context.Background(), "bob")
	f.addPurchase(alice.ID, june(1), 90)
	f.addMeal(alice.ID, june(1))
	f.addMeal(bob.ID, june(1))

	_, err := f.svc.CalculateWeek(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)

	// Week 2 has no activity at all for alice.
	b, err := f.svc.CalculateWeek(context.Background(), alice.ID, 2026, 6, 2)
	require.NoError(t, err)
	eq(t, 0, b.WeeklyBalance.Sub(b.AdvanceFromPreviousWeek))
	require.True(t, b.AdvanceFromPreviousWeek.IsPositive())
	eq(t, 0, b.TotalExpense)
	require.True(t, b.AdvanceToNextWeek.Equal(b.AdvanceFromPreviousWeek))
}

func TestRecalculateFromDate_ThreeWeekChain(t *testing.T) {
	f := newFixture(june(21))
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	carl := f.users.add("carl")

	// Week 1: alice buys 90 on the 1st, all three eat → cost 30 each.
	f.addPurchase(alice.ID, june(1), 90)
	f.addMeal(alice.ID, june(1))
	f.addMeal(bob.ID, june(1))
	f.addMeal(carl.ID, june(1))

	// Week 2: bob buys 240 on the 8th, all three eat → cost 80 each.
	f.addPurchase(bob.ID, june(8), 240)
	f.addMeal(alice.ID, june(8))
	f.addMeal(bob.ID, june(8))
	f.addMeal(carl.ID, june(8))

	// Week 3: alice alone buys 50 and eats on the 15th → cost 50.
	f.addPurchase(alice.ID, june(15), 50)
	f.addMeal(alice.ID, june(15))

	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(1)))

	w1, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	eq(t, 60, w1.WeeklyBalance) // 0 + 90 − 30
	eq(t, 60, w1.AdvanceToNextWeek)
	assert.Equal(t, model.StatusCredit, w1.Status)

	w2, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 2)
	require.NoError(t, err)
	eq(t, 60, w2.AdvanceFromPreviousWeek)
	eq(t, -20, w2.WeeklyBalance) // 60 + 0 − 80
	eq(t, 20, w2.FinalAmount)
	eq(t, 0, w2.AdvanceToNextWeek)
	assert.Equal(t, model.StatusDue, w2.Status)

	w3, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 3)
	require.NoError(t, err)
	eq(t, 0, w3.AdvanceFromPreviousWeek) // the week-2 due did not carry
	eq(t, 0, w3.WeeklyBalance)           // 0 + 50 + 0 − 50
	assert.Equal(t, model.StatusBalanced, w3.Status)
}

func TestRecalculateFromDate_Idempotent(t *testing.T) {
	f := newFixture(june(14))
	alice := f.users.add("alice")
	f.addPurchase(alice.ID, june(1), 40)
	f.addMeal(alice.ID, june(1))
	f.addMeal(alice.ID, june(9))

	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(1)))
	first, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	firstID := first.ID
	firstBalance := first.WeeklyBalance

	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(1)))
	second, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)

	assert.Equal(t, firstID, second.ID, "recalculation must upsert, not duplicate")
	require.True(t, second.WeeklyBalance.Equal(firstBalance))
}

func TestRecalculateFromDate_EarlierWeeksUntouched(t *testing.T) {
	f := newFixture(june(20))
	alice := f.users.add("alice")
	f.addPurchase(alice.ID, june(1), 40)
	f.addMeal(alice.ID, june(1))

	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(1)))
	w1Before, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	stampBefore := w1Before.CalculatedAt

	// A later change (week 2) ripples forward only.
	f.now = june(21)
	f.addMeal(alice.ID, june(10))
	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(10)))

	w1After, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	assert.Equal(t, stampBefore, w1After.CalculatedAt, "week 1 must not be recomputed")

	w2, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 2)
	require.NoError(t, err)
	assert.Equal(t, june(21).UTC(), w2.CalculatedAt)
}

func TestRecalculateAll_Summary(t *testing.T) {
	f := newFixture(june(21))
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	f.addPurchase(alice.ID, june(1), 30)
	f.addMeal(alice.ID, june(1))
	f.addMeal(bob.ID, june(1))

	summary, err := f.svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	// Earliest record June 1, now June 21 → weeks 1-3, for each of 2 members.
	assert.Equal(t, 6, summary.ProcessedCount)
	assert.Empty(t, summary.FailedUsers)

	b, err := f.balanceRepo.Find(context.Background(), bob.ID, 2026, 6, 1)
	require.NoError(t, err)
	eq(t, -15, b.WeeklyBalance)
}

func TestRecalculateAll_EmptyLedger(t *testing.T) {
	f := newFixture(june(21))
	f.users.add("alice")

	summary, err := f.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ProcessedCount)
}

func TestRecalculateAll_DropsStaleWeeks(t *testing.T) {
	f := newFixture(june(7))
	alice := f.users.add("alice")

	f.addPurchase(alice.ID, june(2), 30)
	f.addMeal(alice.ID, june(2))
	_, err := f.svc.CalculateWeek(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)

	// Every underlying fact is gone; the cached week must not outlive them.
	f.meals.meals = make(map[uuid.UUID]*model.Meal)
	f.purchases.purchases = make(map[uuid.UUID]*model.Purchase)

	summary, err := f.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ProcessedCount)

	_, err = f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecalculateFromDate_CarriesAcrossMonthBorder(t *testing.T) {
	f := newFixture(july(3))
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	// June week 5 (29-30): alice buys 60, both eat → cost 30, alice +30.
	f.addPurchase(alice.ID, june(29), 60)
	f.addMeal(alice.ID, june(29))
	f.addMeal(bob.ID, june(29))

	// July week 1: bob buys 30, both eat → alice's share is 15.
	f.addPurchase(bob.ID, july(1), 30)
	f.addMeal(alice.ID, july(1))
	f.addMeal(bob.ID, july(1))

	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(29)))

	w5, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 5)
	require.NoError(t, err)
	eq(t, 30, w5.WeeklyBalance)
	eq(t, 30, w5.AdvanceToNextWeek)

	w1, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 7, 1)
	require.NoError(t, err)
	eq(t, 30, w1.AdvanceFromPreviousWeek) // June's carry-out crossed the border
	eq(t, 15, w1.WeeklyBalance)           // 30 + 0 + 0 − 15
	assert.Equal(t, model.StatusCredit, w1.Status)
}

func TestGetCurrentAdvance(t *testing.T) {
	f := newFixture(june(14))
	alice := f.users.add("alice")

	// No history → zero, not an error.
	adv, err := f.svc.GetCurrentAdvance(context.Background(), alice.ID)
	require.NoError(t, err)
	eq(t, 0, adv)

	f.addPurchase(alice.ID, june(1), 90)
	f.addMeal(alice.ID, june(1))
	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(1)))

	adv, err = f.svc.GetCurrentAdvance(context.Background(), alice.ID)
	require.NoError(t, err)
	// Alice ate her own 90 purchase alone: expense 90, purchases 90,
	// balance 0. The latest computed week carries 0 forward.
	eq(t, 0, adv)

	f.addPayment(alice.ID, june(9), 25)
	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(9)))

	adv, err = f.svc.GetCurrentAdvance(context.Background(), alice.ID)
	require.NoError(t, err)
	eq(t, 25, adv)
}

func TestGetWeeklyBalance_InvalidWeek(t *testing.T) {
	f := newFixture(june(7))
	alice := f.users.add("alice")

	// February 2026 has 28 days — no week 5.
	_, err := f.svc.GetWeeklyBalance(context.Background(), alice.ID, 2026, 2, 5)
	require.Error(t, err)
}

func TestPaymentDelete_RipplesForwardOnly(t *testing.T) {
	f := newFixture(june(20))
	alice := f.users.add("alice")
	f.addPurchase(alice.ID, june(1), 40)
	f.addMeal(alice.ID, june(1))

	paymentSvc := NewPaymentService(f.payments, f.users, f.svc, nil)

	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(1)))
	w1, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	stampBefore := w1.CalculatedAt

	p := f.addPayment(alice.ID, june(10), 100)
	f.now = june(21)
	require.NoError(t, f.svc.RecalculateFromDate(context.Background(), alice.ID, june(10)))

	w2, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 2)
	require.NoError(t, err)
	eq(t, 100, w2.TotalAdvancePayments)

	require.NoError(t, paymentSvc.Delete(context.Background(), p.ID))

	w2, err = f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 2)
	require.NoError(t, err)
	eq(t, 0, w2.TotalAdvancePayments)
	eq(t, 0, w2.WeeklyBalance)

	w1, err = f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	assert.Equal(t, stampBefore, w1.CalculatedAt, "weeks before the payment stay untouched")
}

func TestSettle_Invariant(t *testing.T) {
	cases := []struct {
		name                             string
		prev, purchases, payments, spent int64
		balance, advance                 int64
		status                           string
	}{
		{"credit", 0, 90, 0, 30, 60, 60, model.StatusCredit},
		{"due", 60, 0, 0, 80, -20, 0, model.StatusDue},
		{"balanced", 0, 50, 0, 50, 0, 0, model.StatusBalanced},
		{"payment covers due", 0, 0, 40, 30, 10, 10, model.StatusCredit},
		{"negative payment deducts", 20, 0, -30, 0, -10, 0, model.StatusDue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := settle(
				decimal.NewFromInt(tc.prev),
				decimal.NewFromInt(tc.purchases),
				decimal.NewFromInt(tc.payments),
				decimal.NewFromInt(tc.spent),
			)
			eq(t, tc.balance, st.WeeklyBalance)
			eq(t, tc.advance, st.AdvanceToNextWeek)
			assert.Equal(t, tc.status, st.Status)
			require.True(t, st.FinalAmount.Equal(st.WeeklyBalance.Abs()))
		})
	}
}
