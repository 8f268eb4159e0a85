package service

import (
	"context"
	"testing"
	"time"

	"messbill/internal/dto"
	"messbill/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mealFixture(t *testing.T, now time.Time) (*fixture, *mealService, *model.User) {
	t.Helper()
	f := newFixture(now)
	alice := f.users.add("alice")
	svc := NewMealService(f.meals, f.users, f.svc).(*mealService)
	svc.now = func() time.Time { return f.now }
	return f, svc, alice
}

func mealReq(date string) dto.CreateMealRequest {
	return dto.CreateMealRequest{Date: date, MealType: "lunch"}
}

func TestMealCreate_OnePerDay(t *testing.T) {
	_, svc, alice := mealFixture(t, june(5))

	resp, err := svc.Create(context.Background(), alice.ID, model.RoleMember, mealReq("2026-06-05"))
	require.NoError(t, err)
	assert.Equal(t, "2026-06-05", resp.Date)
	assert.Equal(t, alice.ID.String(), resp.UserID)

	_, err = svc.Create(context.Background(), alice.ID, model.RoleMember, mealReq("2026-06-05"))
	assert.ErrorIs(t, err, ErrDuplicateMeal)

	// A different day is fine.
	_, err = svc.Create(context.Background(), alice.ID, model.RoleMember, mealReq("2026-06-06"))
	require.NoError(t, err)
}

func TestMealCreate_AdminOnBehalf(t *testing.T) {
	f, svc, _ := mealFixture(t, june(5))
	admin := f.users.add("admin")
	admin.Role = model.RoleAdmin
	bob := f.users.add("bob")

	req := mealReq("2026-06-05")
	bobID := bob.ID.String()
	req.UserID = &bobID

	resp, err := svc.Create(context.Background(), admin.ID, model.RoleAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, bob.ID.String(), resp.UserID)
}

func TestMealCreate_MemberCannotTargetOthers(t *testing.T) {
	f, svc, alice := mealFixture(t, june(5))
	bob := f.users.add("bob")

	// A non-admin naming somebody else is rejected outright.
	req := mealReq("2026-06-05")
	bobID := bob.ID.String()
	req.UserID = &bobID

	_, err := svc.Create(context.Background(), alice.ID, model.RoleMember, req)
	assert.ErrorIs(t, err, ErrNotOwner)

	bobMeals, err := f.meals.ListByUserAndDateRange(context.Background(), bob.ID, june(1), june(7))
	require.NoError(t, err)
	assert.Empty(t, bobMeals)

	// Naming themselves explicitly is fine.
	aliceID := alice.ID.String()
	req.UserID = &aliceID
	resp, err := svc.Create(context.Background(), alice.ID, model.RoleMember, req)
	require.NoError(t, err)
	assert.Equal(t, alice.ID.String(), resp.UserID)
}

func TestMealCreate_UnknownMember(t *testing.T) {
	_, svc, _ := mealFixture(t, june(5))
	_, err := svc.Create(context.Background(), uuid.New(), model.RoleMember, mealReq("2026-06-05"))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMealDelete_PastDateRules(t *testing.T) {
	f, svc, alice := mealFixture(t, june(5))
	admin := f.users.add("admin")
	admin.Role = model.RoleAdmin

	resp, err := svc.Create(context.Background(), alice.ID, model.RoleMember, mealReq("2026-06-05"))
	require.NoError(t, err)
	mealID, _ := uuid.Parse(resp.ID)

	// Same-day delete by the owner is allowed.
	require.NoError(t, svc.Delete(context.Background(), alice.ID, model.RoleMember, mealID))

	// Recreate, move the clock past the date: the member is now locked out.
	resp, err = svc.Create(context.Background(), alice.ID, model.RoleMember, mealReq("2026-06-05"))
	require.NoError(t, err)
	mealID, _ = uuid.Parse(resp.ID)
	f.now = june(8)

	err = svc.Delete(context.Background(), alice.ID, model.RoleMember, mealID)
	assert.ErrorIs(t, err, ErrPastMealDelete)

	// An admin can still remove it.
	require.NoError(t, svc.Delete(context.Background(), admin.ID, model.RoleAdmin, mealID))
}

func TestMealDelete_OwnershipEnforced(t *testing.T) {
	f, svc, alice := mealFixture(t, june(5))
	bob := f.users.add("bob")

	resp, err := svc.Create(context.Background(), alice.ID, model.RoleMember, mealReq("2026-06-05"))
	require.NoError(t, err)
	mealID, _ := uuid.Parse(resp.ID)

	err = svc.Delete(context.Background(), bob.ID, model.RoleMember, mealID)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestMealCreate_TriggersRecalculation(t *testing.T) {
	f, svc, alice := mealFixture(t, june(5))
	f.addPurchase(alice.ID, june(5), 30)

	_, err := svc.Create(context.Background(), alice.ID, model.RoleMember, mealReq("2026-06-05"))
	require.NoError(t, err)

	// The create rippled the member's week: balance rows exist already.
	b, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, b.TotalMeals)
	eq(t, 0, b.WeeklyBalance) // bought 30, ate the lone 30-cost meal
}

func TestMealList_DefaultsToCurrentMonth(t *testing.T) {
	f, svc, alice := mealFixture(t, june(20))

	_ = f.meals.Create(context.Background(), &model.Meal{UserID: alice.ID, Date: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC), MealType: "lunch"})
	_ = f.meals.Create(context.Background(), &model.Meal{UserID: alice.ID, Date: june(10), MealType: "lunch"})

	resp, err := svc.List(context.Background(), dto.MealFilter{UserID: alice.ID.String()})
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "2026-06-10", resp[0].Date)
}
